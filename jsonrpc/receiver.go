package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mnehpets/rpcschema/schema"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Receiver builds method definitions from the exported methods of receiver.
// The namespace prefixes all method names ("math" + "Add" -> "math.Add");
// use an empty namespace for bare names.
//
// Methods must have this signature:
//
//	func(ctx context.Context, params <StructType>) (result, error)
//
// The params struct uses json tags to define parameter names. Both
// positional params (array elements map to fields in declaration order) and
// named params (every tagged field is required) are accepted. A `_` field
// with a `jsonrpc` tag overrides the method name:
//
//	type AddParams struct {
//	    _ struct{} `jsonrpc:"add"`
//	    A int `json:"a"`
//	    B int `json:"b"`
//	}
//
// Methods with other signatures are skipped. Result schemas are left nil.
func Receiver(namespace string, receiver any) map[string]Method {
	val := reflect.ValueOf(receiver)
	typ := val.Type()

	defs := make(map[string]Method)
	for i := 0; i < val.NumMethod(); i++ {
		method := typ.Method(i)
		if !method.IsExported() {
			continue
		}
		rm := parseMethod(val, method)
		if rm == nil {
			continue
		}
		name := rm.methodName
		if namespace != "" {
			name = namespace + "." + name
		}
		if _, exists := defs[name]; exists {
			panic("jsonrpc: method name collision: " + name)
		}
		defs[name] = Method{
			Params:  schema.Func(rm.decode),
			Handler: rm.call,
		}
	}
	return defs
}

// rpcMethod holds reflection data for a receiver method.
type rpcMethod struct {
	receiver    reflect.Value
	method      reflect.Method
	paramType   reflect.Type
	paramNames  []string // JSON tag names for named params
	paramFields []int    // field indices for positional params
	methodName  string
}

// decode converts params to a value of the params struct type. A value that
// already has that type, such as the output of a previous decode, is returned
// unchanged.
func (m *rpcMethod) decode(params any) schema.Result {
	if v := reflect.ValueOf(params); v.IsValid() && v.Type() == m.paramType {
		return schema.Valid(params)
	}
	param := reflect.New(m.paramType)

	if list, ok := params.([]any); ok {
		if len(list) != len(m.paramFields) {
			return schema.Invalid(schema.Issue{
				Message: fmt.Sprintf("expected %d params, received %d", len(m.paramFields), len(list)),
				Code:    schema.CodeInvalidType,
			})
		}
		var issues []schema.Issue
		for i, elem := range list {
			field := param.Elem().Field(m.paramFields[i])
			if err := assign(field.Addr().Interface(), elem); err != nil {
				issues = append(issues, schema.Issue{Path: []any{i}, Message: err.Error(), Code: schema.CodeInvalidType})
			}
		}
		if len(issues) > 0 {
			return schema.Invalid(issues...)
		}
		return schema.Valid(param.Elem().Interface())
	}

	if params == nil {
		if len(m.paramFields) > 0 {
			return schema.Invalid(schema.Issue{Message: "params required", Code: schema.CodeRequired})
		}
		return schema.Valid(param.Elem().Interface())
	}

	named, ok := params.(map[string]any)
	if !ok {
		return schema.Invalid(schema.Issue{Message: "expected array or object", Code: schema.CodeInvalidType})
	}
	if err := assign(param.Interface(), named); err != nil {
		return schema.Invalid(schema.Issue{Message: err.Error(), Code: schema.CodeInvalidType})
	}
	var issues []schema.Issue
	for _, name := range m.paramNames {
		if _, ok := named[name]; !ok {
			issues = append(issues, schema.Issue{Path: []any{name}, Message: "required", Code: schema.CodeRequired})
		}
	}
	if len(issues) > 0 {
		return schema.Invalid(issues...)
	}
	return schema.Valid(param.Elem().Interface())
}

func (m *rpcMethod) call(ctx context.Context, params any) (any, error) {
	arg := reflect.ValueOf(params)
	if !arg.IsValid() || arg.Type() != m.paramType {
		return nil, NewInvalidParamsError(fmt.Sprintf("expected %s", m.paramType))
	}
	results := m.method.Func.Call([]reflect.Value{m.receiver, reflect.ValueOf(ctx), arg})

	var err error
	if !results[1].IsNil() {
		err = results[1].Interface().(error)
	}
	return results[0].Interface(), err
}

// assign copies a decoded JSON value into dst through encoding/json.
func assign(dst any, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// parseMethod extracts method signature information via reflection.
// Returns nil for invalid signatures.
func parseMethod(receiver reflect.Value, method reflect.Method) *rpcMethod {
	ft := method.Func.Type()

	if ft.NumIn() != 3 || ft.In(1) != contextType {
		return nil
	}
	if ft.NumOut() != 2 || ft.Out(1) != errorType {
		return nil
	}
	paramType := ft.In(2)
	if paramType.Kind() != reflect.Struct {
		return nil
	}

	rm := &rpcMethod{
		receiver:   receiver,
		method:     method,
		paramType:  paramType,
		methodName: method.Name,
	}
	for i := 0; i < paramType.NumField(); i++ {
		field := paramType.Field(i)
		if field.Name == "_" {
			if tag := field.Tag.Get("jsonrpc"); tag != "" {
				rm.methodName = tag
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			tagName := strings.Split(jsonTag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		rm.paramNames = append(rm.paramNames, name)
		rm.paramFields = append(rm.paramFields, i)
	}
	return rm
}
