package procedure_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/bjaus/procedure"
)

// GreetInput is the input of the greeting procedure.
type GreetInput struct {
	Name string `json:"name"`
}

func (in GreetInput) Validate() error {
	if in.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func Example() {
	greeting := procedure.Query().
		Input(procedure.JSON[GreetInput]()).
		Handle(func(ctx context.Context, req procedure.Request) (any, error) {
			return "hello " + req.Input.(GreetInput).Name, nil
		})

	router := procedure.MustRouter(procedure.Routes{
		"greeting": greeting,
	})
	d := procedure.NewDispatcher(router)

	res := d.Invoke(context.Background(), "greeting", procedure.KindQuery, []byte(`{"name":"KATT"}`), nil)
	fmt.Println(res.Data)

	res = d.Invoke(context.Background(), "greeting", procedure.KindQuery, []byte(`{"name":""}`), nil)
	fmt.Println(res.Error.Code, res.Error.Message)

	// Output:
	// hello KATT
	// INPUT_VALIDATION_ERROR name is required
}

func Example_middleware() {
	auth := procedure.Declare(func(ctx context.Context, req procedure.Request, next procedure.Next) (any, error) {
		if req.Values.String("token") != "secret" {
			return nil, procedure.NewError(procedure.CodeUnauthorized, "bad token")
		}
		return next(procedure.Values{"user": "KATT"})
	}, "user")

	whoami := procedure.Query().
		Use(auth).
		Handle(func(ctx context.Context, req procedure.Request) (any, error) {
			return procedure.ValueOf[string](req.Values, "user")
		})

	d := procedure.NewDispatcher(procedure.MustRouter(procedure.Routes{"whoami": whoami}))

	res := d.Invoke(context.Background(), "whoami", procedure.KindQuery, nil, procedure.Values{"token": "secret"})
	fmt.Println(res.Data)

	res = d.Invoke(context.Background(), "whoami", procedure.KindQuery, nil, nil)
	fmt.Println(res.Error.Code)

	// Output:
	// KATT
	// UNAUTHORIZED
}

func Example_merge() {
	users := procedure.MustRouter(procedure.Routes{
		"list": procedure.Query().HandleFunc(func(ctx context.Context, input any) (any, error) {
			return []string{"KATT"}, nil
		}),
	})
	posts := procedure.MustRouter(procedure.Routes{
		"create": procedure.Mutation().HandleFunc(func(ctx context.Context, input any) (any, error) {
			return "created", nil
		}),
	})

	app := procedure.MustMerge(
		procedure.MustRouter(procedure.Routes{"users": users}),
		procedure.MustRouter(procedure.Routes{"posts": posts}),
	)

	for _, path := range app.Table().Paths() {
		p, _ := app.Procedure(path)
		fmt.Println(path, p.Kind())
	}

	_, err := procedure.Merge(app, procedure.MustRouter(procedure.Routes{"users": users}))
	fmt.Println(err)

	// Output:
	// posts.create mutation
	// users.list query
	// duplicate procedure path "users"
}

func Example_errorHook() {
	d := procedure.NewDispatcher(procedure.MustRouter(procedure.Routes{}),
		procedure.WithErrorHook(func(shape procedure.ErrorShape, err error) map[string]any {
			return map[string]any{"foo": "bar"}
		}),
	)

	res := d.Invoke(context.Background(), "not-found", procedure.KindQuery, nil, nil)
	fmt.Println(res.Error.Message)
	fmt.Println(res.Error.Data["foo"], res.Error.Data["httpStatus"])

	// Output:
	// No "query"-procedure on path "not-found"
	// bar 404
}
