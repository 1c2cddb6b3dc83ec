// Package config builds the immutable deployment parameters for a
// provisioning run from CLI options and the optional site defaults file.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ksyq12/webhostinit/internal/errors"
	"github.com/ksyq12/webhostinit/internal/fsops"
	"github.com/ksyq12/webhostinit/internal/template"
)

// Built-in defaults, used when neither flags nor the defaults file set a value.
const (
	DefaultAppName      = "webhost"
	DefaultVHostsRoot   = "/srv/www"
	DefaultNginxConfDir = "/etc/nginx/conf.d"
	DefaultFpmConfDir   = "/etc/php-fpm.d"
	DefaultLogrotateDir = "/etc/logrotate.d"
	DefaultNginxUser    = "nginx"

	// DefaultRepo is the application repository cloned into the project tree.
	DefaultRepo = "https://github.com/ksyq12/webhost.git"

	// DefaultsPath is the optional site-wide defaults file.
	DefaultsPath = "/etc/webhostinit.yaml"
)

// domainLabelRe validates one dot-separated label of a domain name.
var domainLabelRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// Options are the raw inputs from flags and the defaults file.
// Empty fields fall back to the built-in defaults.
type Options struct {
	AppName      string
	Domain       string
	VHostsRoot   string
	CertRoot     string
	NginxConfDir string
	FpmConfDir   string
	LogrotateDir string
	NginxUser    string
	Repo         string
}

// Parameters holds everything a provisioning run needs, built once at
// startup and never mutated. All root paths are canonical and verified to
// exist; the project paths are derived and created later by the run.
type Parameters struct {
	AppName   string
	Domain    string
	NginxUser string
	Repo      string

	VHostsRoot   string
	CertRoot     string
	NginxConfDir string
	FpmConfDir   string
	LogrotateDir string

	ProjectRoot     string
	AppDir          string
	ConfDir         string
	LogsDir         string
	LogsArchiveDir  string
	TmpDir          string
	TmpSessionsDir  string
	TmpWSDLCacheDir string
	TmpOpcacheDir   string
	FpmSock         string
}

// Defaults is the schema of the optional site defaults file.
type Defaults struct {
	App          string `yaml:"app"`
	VHostsRoot   string `yaml:"vhosts_root"`
	CertRoot     string `yaml:"cert_root"`
	NginxConfDir string `yaml:"nginx_conf_dir"`
	FpmConfDir   string `yaml:"fpm_conf_dir"`
	LogrotateDir string `yaml:"logrotate_dir"`
	NginxUser    string `yaml:"nginx_user"`
	Repo         string `yaml:"repo"`
}

// LoadDefaults reads the defaults file at path. A missing file is not an
// error; it simply contributes nothing.
func LoadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Defaults{}, nil
	}
	if err != nil {
		return nil, errors.FileSystem("read", path, "", err)
	}

	d := &Defaults{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, errors.Validation("defaults file %s: %v", path, err)
	}
	return d, nil
}

// Apply fills empty Options fields from the defaults file values.
func (d *Defaults) Apply(o *Options) {
	if o.AppName == "" {
		o.AppName = d.App
	}
	if o.VHostsRoot == "" {
		o.VHostsRoot = d.VHostsRoot
	}
	if o.CertRoot == "" {
		o.CertRoot = d.CertRoot
	}
	if o.NginxConfDir == "" {
		o.NginxConfDir = d.NginxConfDir
	}
	if o.FpmConfDir == "" {
		o.FpmConfDir = d.FpmConfDir
	}
	if o.LogrotateDir == "" {
		o.LogrotateDir = d.LogrotateDir
	}
	if o.NginxUser == "" {
		o.NginxUser = d.NginxUser
	}
	if o.Repo == "" {
		o.Repo = d.Repo
	}
}

// New validates opts, canonicalizes the root paths, and derives the
// project paths. The roots must exist on disk; the project paths need not.
func New(opts Options) (*Parameters, error) {
	if opts.AppName == "" {
		opts.AppName = DefaultAppName
	}
	if opts.Domain == "" {
		opts.Domain = opts.AppName
	}
	if opts.VHostsRoot == "" {
		opts.VHostsRoot = DefaultVHostsRoot
	}
	if opts.CertRoot == "" {
		opts.CertRoot = filepath.Join(opts.VHostsRoot, "default", "public")
	}
	if opts.NginxConfDir == "" {
		opts.NginxConfDir = DefaultNginxConfDir
	}
	if opts.FpmConfDir == "" {
		opts.FpmConfDir = DefaultFpmConfDir
	}
	if opts.LogrotateDir == "" {
		opts.LogrotateDir = DefaultLogrotateDir
	}
	if opts.NginxUser == "" {
		opts.NginxUser = DefaultNginxUser
	}
	if opts.Repo == "" {
		opts.Repo = DefaultRepo
	}

	if err := ValidateAppName(opts.AppName); err != nil {
		return nil, err
	}
	if err := ValidateDomain(opts.Domain); err != nil {
		return nil, err
	}

	vhostsRoot, err := fsops.Canonicalize(opts.VHostsRoot)
	if err != nil {
		return nil, err
	}
	certRoot, err := fsops.Canonicalize(opts.CertRoot)
	if err != nil {
		return nil, err
	}
	nginxConfDir, err := fsops.Canonicalize(opts.NginxConfDir)
	if err != nil {
		return nil, err
	}
	fpmConfDir, err := fsops.Canonicalize(opts.FpmConfDir)
	if err != nil {
		return nil, err
	}

	projectRoot := filepath.Join(vhostsRoot, opts.AppName)
	tmpDir := filepath.Join(projectRoot, "tmp")
	logsDir := filepath.Join(projectRoot, "logs")

	return &Parameters{
		AppName:   opts.AppName,
		Domain:    opts.Domain,
		NginxUser: opts.NginxUser,
		Repo:      opts.Repo,

		VHostsRoot:   vhostsRoot,
		CertRoot:     certRoot,
		NginxConfDir: nginxConfDir,
		FpmConfDir:   fpmConfDir,
		LogrotateDir: opts.LogrotateDir,

		ProjectRoot:     projectRoot,
		AppDir:          filepath.Join(projectRoot, "app"),
		ConfDir:         filepath.Join(projectRoot, "conf"),
		LogsDir:         logsDir,
		LogsArchiveDir:  filepath.Join(logsDir, "archive"),
		TmpDir:          tmpDir,
		TmpSessionsDir:  filepath.Join(tmpDir, "sessions"),
		TmpWSDLCacheDir: filepath.Join(tmpDir, "wsdlcache"),
		TmpOpcacheDir:   filepath.Join(tmpDir, "opcache"),
		FpmSock:         filepath.Join("/var/run/php-fpm", opts.AppName+".sock"),
	}, nil
}

// Vars returns the template variable map shared by all three config
// renders. It covers every placeholder the shipped templates reference.
func (p *Parameters) Vars() template.Vars {
	vars := template.NewVars()
	vars.Set("APP_NAME", p.AppName)
	vars.Set("APP_DIR", p.AppDir)
	vars.Set("CONF_DIR", p.ConfDir)
	vars.Set("LOGS_DIR", p.LogsDir)
	vars.Set("TMP_DIR", p.TmpDir)
	vars.Set("FPM_SOCK", p.FpmSock)
	vars.Set("PRIMARY_DOMAIN", p.Domain)
	vars.Set("NGINX_USER", p.NginxUser)
	return vars
}

// ValidateDomain checks domain against RFC-1035 style label grammar:
// dot-joined labels of 1-63 alphanumeric-or-hyphen characters with no
// leading or trailing hyphen.
func ValidateDomain(domain string) error {
	if domain == "" {
		return errors.Validation("domain cannot be empty")
	}
	if len(domain) > 253 {
		return errors.Validation("domain name too long: %s", domain)
	}
	for _, label := range strings.Split(domain, ".") {
		if !domainLabelRe.MatchString(label) {
			return errors.Validation("invalid domain name: %s", domain)
		}
	}
	return nil
}

// ValidateAppName checks the app name is usable as a directory and
// certificate name.
func ValidateAppName(name string) error {
	if name == "" {
		return errors.Validation("app name cannot be empty")
	}
	if strings.ContainsAny(name, "/ \t") || name == "." || name == ".." {
		return errors.Validation("invalid app name: %s", name)
	}
	return nil
}
