package providers

import (
	"net/http"
	"nonomi/internal/structures"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	GetRoutes() []structures.Route
}

// RouterProvider collects the daemon's API routes before they are mounted
// on the instrumented mux. One method per path.
type RouterProvider struct {
	routes []structures.Route
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(http.MethodGet, url, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(http.MethodPost, url, handler)
}

func (rp *RouterProvider) add(method, url string, handler http.Handler) {
	rp.routes = append(rp.routes, structures.Route{
		Method:  method,
		Url:     url,
		Handler: methodHandler(method, handler),
	})
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{}
}

// methodHandler answers 405 with an Allow header for anything but method.
// GET routes also serve HEAD.
func methodHandler(method string, handler http.Handler) http.Handler {
	allow := method
	if method == http.MethodGet {
		allow = http.MethodGet + ", " + http.MethodHead
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", allow)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// Mount registers every collected route on mux.
func Mount(router RouterProviderInterface, mux *http.ServeMux) {
	for _, route := range router.GetRoutes() {
		mux.Handle(route.Url, route.Handler)
	}
}
