package cli

import (
	"net/http"
	_ "net/http/pprof"

	"go.uber.org/zap"

	"github.com/buildeasy/buildeasy/core/module"
	"github.com/buildeasy/buildeasy/core/scanner"
	"github.com/buildeasy/buildeasy/lib/monitoring"
)

func newModuleMetrics() module.Metrics {
	return module.Metrics{
		InstanceCreated: monitoring.NewCounter("module_InstancesCreated"),
		CapabilityCall:  monitoring.NewCounter("module_CapabilityCalls"),
		DynamicAdded:    monitoring.NewCounter("module_DynamicCapabilities"),
	}
}

func newScannerMetrics() scanner.Metrics {
	return scanner.Metrics{
		Scanned: monitoring.NewCounter("scanner_ManifestsScanned"),
		Loaded:  monitoring.NewCounter("scanner_ModulesLoaded"),
		Failed:  monitoring.NewCounter("scanner_ManifestsFailed"),
	}
}

// startMonitoring serves expvar counters and pprof on the default mux.
func startMonitoring(log *zap.Logger) {
	go func() {
		err := http.ListenAndServe(":1234", nil)
		log.Fatal("Monitoring server failed", zap.Error(err))
	}()
}
