package http

import (
	"github.com/danielgtaylor/huma/v2"
)

type middleware = func(huma.Context, func(huma.Context))

// jsonOperation describes a JSON route. Gates run before the handler in the order given.
func jsonOperation(id, method, path, summary string, gates ...middleware) huma.Operation {
	op := huma.Operation{
		OperationID: id,
		Method:      method,
		Path:        path,
		Summary:     summary,
	}
	if len(gates) > 0 {
		op.Middlewares = append(huma.Middlewares{}, gates...)
	}
	return op
}
