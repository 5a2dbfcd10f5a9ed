package config

import (
	"flag"
	"strings"
)

// listValue is a comma separated flag. Each Set replaces the list.
type listValue struct {
	list *[]string
}

func (v listValue) String() string {
	if v.list == nil {
		return ""
	}
	return strings.Join(*v.list, ",")
}

func (v listValue) Set(s string) error {
	*v.list = nil
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*v.list = append(*v.list, part)
		}
	}
	return nil
}

// RegisterFlags binds c's fields to fs. Current field values become the
// flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Mode, "mode", c.Mode, "One of 'extract', 'download' or 'jsonmanifest'")
	fs.StringVar(&c.Backend, "backend", c.Backend, "Archive backend used by '-mode extract' (evr, loose)")
	fs.Var(listValue{&c.GameDirs}, "gameDir", "Comma separated game directories")
	fs.Var(listValue{&c.GameDirs}, "dataDir", "Alias of -gameDir: directory containing 'manifests' & 'packages'")
	fs.StringVar(&c.OutputDir, "outputDir", c.OutputDir, "Directory to write extracted or downloaded files to")
	fs.StringVar(&c.PackageName, "packageName", c.PackageName, "File name of package, e.g. 48037dc70b0ecab2, 2b47aab238f60515")
	fs.StringVar(&c.ManifestType, "manifestType", c.ManifestType, "Manifest layout of the evr backend")
	fs.StringVar(&c.FileList, "fileList", c.FileList, "Name list loaded by the backend before extracting")
	fs.BoolVar(&c.NoFileList, "noFileList", c.NoFileList, "Do not load any name list")
	fs.BoolVar(&c.Extraction.GzipEntries, "gzipEntries", c.Extraction.GzipEntries, "Inflate compressed entries named *.gz")
	fs.BoolVar(&c.Extraction.Strict, "strict", c.Extraction.Strict, "Stop at the first entry that fails")
	fs.StringVar(&c.Download.Manifest, "manifest", c.Download.Manifest, "YAML download manifest")
	fs.StringVar(&c.Download.Server, "server", c.Download.Server, "Base URL of the download server")
	fs.IntVar(&c.Download.Threads, "threads", c.Download.Threads, "Concurrent downloads")
	fs.BoolVar(&c.Download.DryRun, "dry", c.Download.DryRun, "Print planned downloads without fetching")
	fs.StringVar(&c.MetricsAddr, "metricsAddr", c.MetricsAddr, "Serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&c.LogLevel, "logLevel", c.LogLevel, "debug, info, warn or error")
	fs.BoolFunc("verbose", "Shorthand for -logLevel debug", func(string) error {
		c.LogLevel = "debug"
		return nil
	})
}

// Parse resolves args into a Config. A '-config' file is applied first and
// every flag given on the command line overrides it. The result is not
// validated.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	c := Default()
	var path string
	fs.StringVar(&path, "config", "", "YAML config file; flags override its values")
	c.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	loaded, err := Load(path)
	if err != nil {
		return nil, err
	}
	*c = *loaded
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}
	return c, nil
}
