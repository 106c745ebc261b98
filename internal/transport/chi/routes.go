package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface lists the HTTP operations.
type ServerInterface interface {
	// POST /api/v1/chat/search
	ChatSearch(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/products/search
	SearchProducts(w http.ResponseWriter, r *http.Request)
	// POST /api/v1/products/ranked
	RankedSearch(w http.ResponseWriter, r *http.Request)
	// GET /api/v1/products/browse
	BrowseProducts(w http.ResponseWriter, r *http.Request, params BrowseProductsParams)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures route registration.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

type serverInterfaceWrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// browseProducts binds the browse query parameters.
func (siw *serverInterfaceWrapper) browseProducts(w http.ResponseWriter, r *http.Request) {
	var params BrowseProductsParams
	query := r.URL.Query()

	bind := []struct {
		name string
		dest any
	}{
		{"article_type", &params.ArticleType},
		{"sub_category", &params.SubCategory},
		{"colour", &params.Colour},
		{"gender", &params.Gender},
		{"limit", &params.Limit},
		{"offset", &params.Offset},
	}
	for _, p := range bind {
		if err := runtime.BindQueryParameter("form", true, false, p.name, query, p.dest); err != nil {
			siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: p.name, Err: err})
			return
		}
	}

	siw.handler.BrowseProducts(w, r, params)
}

// HandlerWithOptions registers all routes of si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	errorHandler := options.ErrorHandlerFunc
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	wrapper := &serverInterfaceWrapper{handler: si, errorHandlerFunc: errorHandler}

	r.Post("/api/v1/chat/search", si.ChatSearch)
	r.Post("/api/v1/products/search", si.SearchProducts)
	r.Post("/api/v1/products/ranked", si.RankedSearch)
	r.Get("/api/v1/products/browse", wrapper.browseProducts)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)

	return r
}
