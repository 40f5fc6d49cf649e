package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/buildeasy/buildeasy/core/config"
	"github.com/buildeasy/buildeasy/core/module"
	"github.com/buildeasy/buildeasy/core/scanner"
	"github.com/buildeasy/buildeasy/core/state"
	"github.com/buildeasy/buildeasy/lib/confutil"
	"github.com/buildeasy/buildeasy/lib/errutil"
	"github.com/buildeasy/buildeasy/lib/str"
)

const Version = "0.1.0"
const defaultConfigFile = "buildeasy"

var configSearchDirs = []string{"./", "./config", "/etc/buildeasy"}

type cliConfig struct {
	// Modules are inline module definitions, materialized on start.
	Modules []scanner.Manifest `config:"modules" validate:"dive"`
	// Scan are manifest directories, loaded after inline modules.
	Scan []scanner.Config `config:"scan" validate:"dive"`
	Log  logConfig        `config:"log"`
}

type logConfig struct {
	Level string `config:"level"`
}

func Run() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of buildeasy: buildeasy [flags]\n"+
			"Config is searched as '%s.(yaml|json|...)' in %v when -config is not set\n",
			defaultConfigFile, configSearchDirs)
		flag.PrintDefaults()
	}
	var (
		configFile   string
		example      bool
		expvar       bool
		version      bool
		list         bool
		call         string
		saveState    string
		restoreState string
		debug        bool
	)
	flag.StringVar(&configFile, "config", "", "config file path")
	flag.BoolVar(&example, "example", false, "print example config to STDOUT and exit")
	flag.BoolVar(&expvar, "expvar", false, "start HTTP server with monitoring variables")
	flag.BoolVar(&version, "version", false, "print version and exit")
	flag.BoolVar(&list, "list", false, "list modules and their capabilities")
	flag.StringVar(&call, "call", "", "invoke a capability: 'module.capability(arg, ...)'")
	flag.StringVar(&saveState, "save-state", "", "save module state to file: 'module:path'")
	flag.StringVar(&restoreState, "restore-state", "", "restore module state from file: 'module:path'")
	flag.BoolVar(&debug, "debug", false, "debug logging")
	flag.Parse()

	if version {
		fmt.Printf("buildeasy v%s\n", Version)
		return
	}
	if example {
		fmt.Print(exampleConfig)
		return
	}

	log, level := newLogger(debug)
	log.Info("Buildeasy started", zap.String("version", Version))

	// ${env:VAR} and ${property:file#key} variables in config values.
	confutil.RegisterTagResolver("env", confutil.EnvTagResolver)
	confutil.RegisterTagResolver("property", confutil.PropertyTagResolver)

	conf := readConfig(log, configFile)
	applyLogLevel(log, level, debug, conf.Log)

	module.SetMetrics(newModuleMetrics())
	scannerMetrics := newScannerMetrics()
	if expvar {
		startMonitoring(log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(log, cancel)

	if err := load(ctx, log, conf, scannerMetrics); !errutil.IsCtxError(ctx, err) {
		log.Fatal("Module load failed", zap.Error(err))
	}

	switch {
	case list:
		runList()
	case call != "":
		runCall(log, call)
	case saveState != "":
		runSaveState(log, saveState)
	case restoreState != "":
		runRestoreState(log, restoreState)
	default:
		log.Info("Modules ready", zap.Strings("modules", module.Names()))
		if expvar {
			// Keep modules materialized while monitoring is served.
			<-ctx.Done()
			log.Info("Shutting down")
		}
	}
}

// load materializes inline modules and scans manifest directories.
func load(ctx context.Context, log *zap.Logger, conf cliConfig, m scanner.Metrics) error {
	for i, manifest := range conf.Modules {
		def := module.Definition{
			Name:      manifest.Name,
			Type:      manifest.Type,
			Overrides: manifest.Params,
			Mixins:    manifest.Mixins,
			Loader:    "config",
			Doc:       manifest.Doc,
		}
		if _, err := module.Materialize(def); err != nil {
			return errors.WithMessagef(err, "modules[%v]", i)
		}
	}
	if len(conf.Scan) == 0 {
		return nil
	}
	sc := scanner.New(afero.NewOsFs(), module.DefaultRegistry(), log, m)
	for _, scanConf := range conf.Scan {
		if err := sc.Scan(ctx, scanConf); err != nil {
			return err
		}
	}
	return nil
}

func runList() {
	fmt.Printf("types: %s\n", strings.Join(module.TypeNames(), ", "))
	fmt.Printf("mixins: %s\n", strings.Join(module.MixinNames(), ", "))
	for _, name := range module.Names() {
		inst, err := module.Get(name)
		if err != nil {
			fmt.Printf("%s\t<%v>\n", name, err)
			continue
		}
		info := inst.Info()
		fmt.Printf("%s\ttype=%s loader=%s\n", name, info.Type, info.Loader)
		if info.Doc != "" {
			fmt.Printf("  %s\n", info.Doc)
		}
		for _, c := range inst.Describe() {
			fmt.Printf("  %s\t%s\n", c.Name, c.Origin)
		}
	}
}

func runCall(log *zap.Logger, expr string) {
	name, capability, args, err := str.ParseCall(expr)
	if err != nil {
		log.Fatal("Call expression parse failed", zap.String("call", expr), zap.Error(err))
	}
	inst, err := module.Get(name)
	if err != nil {
		log.Fatal("Module get failed", zap.String("module", name), zap.Error(err))
	}
	callArgs := make([]interface{}, len(args))
	for i, arg := range args {
		callArgs[i] = arg
	}
	out, err := inst.Call(capability, callArgs...)
	if err != nil {
		log.Fatal("Capability call failed", zap.String("call", expr), zap.Error(err))
	}
	for _, res := range out {
		fmt.Println(str.Format(res))
	}
}

func runSaveState(log *zap.Logger, arg string) {
	name, path := parseStateArg(log, arg)
	inst, err := module.Get(name)
	if err != nil {
		log.Fatal("Module get failed", zap.String("module", name), zap.Error(err))
	}
	store := state.NewStore(afero.NewOsFs(), log)
	if err := store.SaveState(inst, path); err != nil {
		log.Fatal("State save failed", zap.Error(err))
	}
	log.Info("Module state saved", zap.String("module", name), zap.String("path", path))
}

func runRestoreState(log *zap.Logger, arg string) {
	name, path := parseStateArg(log, arg)
	inst, err := module.Get(name)
	if err != nil {
		log.Fatal("Module get failed", zap.String("module", name), zap.Error(err))
	}
	store := state.NewStore(afero.NewOsFs(), log)
	if err := store.RestoreState(inst, path); err != nil {
		log.Fatal("State restore failed", zap.Error(err))
	}
	log.Info("Module state restored", zap.String("module", name), zap.String("path", path))
}

func parseStateArg(log *zap.Logger, arg string) (name, path string) {
	name, path, ok := strings.Cut(arg, ":")
	if !ok || name == "" || path == "" {
		log.Fatal("Expected 'module:path'", zap.String("arg", arg))
	}
	return
}

func newLogger(debug bool) (*zap.Logger, zap.AtomicLevel) {
	zapConf := zap.NewDevelopmentConfig()
	if !debug {
		zapConf.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := zapConf.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	zap.RedirectStdLog(log)
	return log, zapConf.Level
}

// applyLogLevel applies the config file log level. The -debug flag wins.
func applyLogLevel(log *zap.Logger, level zap.AtomicLevel, debug bool, conf logConfig) {
	if debug || conf.Level == "" {
		return
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(conf.Level)); err != nil {
		log.Fatal("Log level parse failed", zap.String("level", conf.Level), zap.Error(err))
	}
	level.SetLevel(lvl)
}

func readConfig(log *zap.Logger, configFile string) cliConfig {
	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	err := v.ReadInConfig()
	if err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && configFile == "" {
			log.Info("No config file found, starting with registered modules only")
			return cliConfig{}
		}
		log.Fatal("Config read failed", zap.Error(err))
	}
	log.Info("Reading config", zap.String("file", v.ConfigFileUsed()))
	var conf cliConfig
	err = config.DecodeAndValidate(v.AllSettings(), &conf)
	if err != nil {
		log.Fatal("Config decode failed", zap.Error(err))
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(defaultConfigFile)
	for _, dir := range configSearchDirs {
		v.AddConfigPath(dir)
	}
	return v
}

func handleSignals(log *zap.Logger, interrupt func()) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	switch sig {
	case syscall.SIGINT:
		const interruptTimeout = 5 * time.Second
		log.Info("SIGINT received. Trying to stop gracefully.", zap.Duration("timeout", interruptTimeout))
		interrupt()
		select {
		case <-time.After(interruptTimeout):
			log.Fatal("Interrupt timeout exceeded")
		case sig := <-sigs:
			log.Fatal("Another signal received. Quiting.", zap.Stringer("signal", sig))
		}
	case syscall.SIGTERM:
		log.Info("SIGTERM received. Quiting.")
		interrupt()
	default:
		log.Info("Unexpected signal received. Quiting.", zap.Stringer("signal", sig))
	}
}
