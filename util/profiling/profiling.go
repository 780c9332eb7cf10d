package profiling

import (
	"net"
	"net/http"

	// Registers the pprof handlers on http.DefaultServeMux
	_ "net/http/pprof"

	"github.com/dposnet/dposd/infrastructure/logger"
	"github.com/dposnet/dposd/util/panics"
)

// Start starts the profiling server on port. It never returns an error:
// a failing server is logged and profiling stays off.
func Start(port string, log *logger.Logger) {
	spawn := panics.GoroutineWrapperFunc(log)
	spawn("profiling.Start", func() {
		listenAddr := net.JoinHostPort("", port)
		log.Infof("Profile server listening on %s", listenAddr)
		profileRedirect := http.RedirectHandler("/debug/pprof", http.StatusSeeOther)
		http.Handle("/", profileRedirect)
		log.Errorf("Profile server stopped: %s", http.ListenAndServe(listenAddr, nil))
	})
}
