// Package provision implements the deployment sequence: certificate,
// directory tree, application clone, rendered configuration files,
// symlink installation, and service reloads.
//
// The sequence is strictly linear and fail-fast. The first error stops
// the run; completed steps are not rolled back, so a failed run leaves
// partial state that a later run can pick up (directory creation is
// idempotent, symlink creation is not).
package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ksyq12/webhostinit/internal/config"
	"github.com/ksyq12/webhostinit/internal/errors"
	"github.com/ksyq12/webhostinit/internal/executor"
	"github.com/ksyq12/webhostinit/internal/fsops"
	"github.com/ksyq12/webhostinit/internal/logger"
	"github.com/ksyq12/webhostinit/internal/output"
	"github.com/ksyq12/webhostinit/internal/template"
)

// CertToolCandidates is the ordered list of certificate tool binaries.
// The first one whose --version probe succeeds is used.
var CertToolCandidates = []string{"certbot", "letsencrypt"}

// Reloaded services, in order.
var services = []string{"nginx", "php-fpm"}

// configKinds are the three configuration files rendered for every
// deployment, in render order.
var configKinds = []string{"nginx", "fpm", "logrotate"}

// Provisioner executes one deployment run.
type Provisioner struct {
	params *config.Parameters
	runner executor.CommandRunner

	// SkipReload leaves the service reload step out of the run.
	SkipReload bool
}

// New creates a Provisioner for the given parameters.
func New(params *config.Parameters, runner executor.CommandRunner) *Provisioner {
	return &Provisioner{params: params, runner: runner}
}

// dirSpec describes one directory of the project tree. Parents come
// before children; modes and ownership differ per directory.
type dirSpec struct {
	path  string
	mode  os.FileMode
	group string
}

func (p *Provisioner) dirs() []dirSpec {
	return []dirSpec{
		{path: p.params.ConfDir, mode: 0o755},
		{path: p.params.LogsDir, mode: 0o775, group: p.params.NginxUser},
		{path: p.params.LogsArchiveDir, mode: 0o755},
		{path: p.params.TmpDir, mode: 0o755},
		{path: p.params.TmpSessionsDir, mode: 0o755},
		{path: p.params.TmpWSDLCacheDir, mode: 0o755},
		{path: p.params.TmpOpcacheDir, mode: 0o755},
	}
}

// artifact describes one rendered configuration file and where its
// symlink is installed.
type artifact struct {
	kind         string
	templatePath string
	confPath     string
	linkPath     string
}

func (p *Provisioner) artifacts() []artifact {
	systemDirs := map[string]string{
		"nginx":     p.params.NginxConfDir,
		"fpm":       p.params.FpmConfDir,
		"logrotate": p.params.LogrotateDir,
	}

	arts := make([]artifact, 0, len(configKinds))
	for _, kind := range configKinds {
		arts = append(arts, artifact{
			kind:         kind,
			templatePath: filepath.Join(p.params.AppDir, "resources", "conf", kind+".conf"),
			confPath:     filepath.Join(p.params.ConfDir, kind+".conf"),
			linkPath:     filepath.Join(systemDirs[kind], p.params.AppName+".conf"),
		})
	}
	return arts
}

// Run executes the full sequence. The first failing step aborts the run
// and its error is returned unchanged.
func (p *Provisioner) Run() error {
	output.Info("Resolving certificate tool...")
	tool, err := p.ResolveCertTool()
	if err != nil {
		return err
	}
	logger.Debug("certificate tool: %s", tool)

	output.Info("Issuing certificate for %s...", p.params.Domain)
	if err := p.issueCertificate(tool); err != nil {
		return err
	}

	output.Info("Creating project directories under %s...", p.params.ProjectRoot)
	if err := p.createDirectories(); err != nil {
		return err
	}

	output.Info("Cloning application into %s...", p.params.AppDir)
	if err := p.runner.Run("git", "clone", p.params.Repo, p.params.AppDir); err != nil {
		return err
	}

	output.Info("Rendering configuration files...")
	if err := p.renderConfigs(); err != nil {
		return err
	}

	output.Info("Installing configuration symlinks...")
	if err := p.installConfigs(); err != nil {
		return err
	}

	if p.SkipReload {
		logger.Info("skipping service reload")
		return nil
	}

	output.Info("Reloading services...")
	return p.reloadServices()
}

// ResolveCertTool probes the candidate binaries in order and returns the
// first one that answers a --version probe. Each candidate is invoked at
// most once.
func (p *Provisioner) ResolveCertTool() (string, error) {
	for _, name := range CertToolCandidates {
		if err := p.runner.RunQuiet(name, "--version"); err == nil {
			return name, nil
		}
		logger.Debug("certificate tool %s not usable", name)
	}
	return "", errors.ErrNoCertTool
}

func (p *Provisioner) issueCertificate(tool string) error {
	return p.runner.Run(tool,
		"certonly",
		"--webroot",
		"--cert-name", p.params.AppName,
		"-w", p.params.CertRoot,
		"-d", p.params.Domain,
	)
}

func (p *Provisioner) createDirectories() error {
	for _, d := range p.dirs() {
		logger.Debug("ensure directory %s mode %o group %q", d.path, d.mode, d.group)
		if err := fsops.EnsureDir(d.path, d.mode, "", d.group); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) renderConfigs() error {
	vars := p.params.Vars()
	for _, a := range p.artifacts() {
		logger.Debug("render %s: %s -> %s", a.kind, a.templatePath, a.confPath)
		tmpl, err := template.Load(a.templatePath)
		if err != nil {
			return err
		}
		if err := tmpl.RenderFile(a.confPath, vars, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) installConfigs() error {
	for _, a := range p.artifacts() {
		logger.Debug("symlink %s -> %s", a.linkPath, a.confPath)
		if err := fsops.Symlink(a.confPath, a.linkPath); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) reloadServices() error {
	for _, svc := range services {
		if err := p.runner.Run("service", svc, "reload"); err != nil {
			return err
		}
	}
	return nil
}

// Plan describes the run as a list of human-readable steps without
// executing anything. Used by dry-run output.
func (p *Provisioner) Plan() []string {
	steps := []string{
		"probe certificate tool: " + strings.Join(CertToolCandidates, ", "),
		"issue certificate: <tool> certonly --webroot --cert-name " + p.params.AppName +
			" -w " + p.params.CertRoot + " -d " + p.params.Domain,
	}
	for _, d := range p.dirs() {
		line := fmt.Sprintf("create directory: %s (mode %04o)", d.path, d.mode)
		if d.group != "" {
			line += " (group " + d.group + ")"
		}
		steps = append(steps, line)
	}
	steps = append(steps, "run: git clone "+p.params.Repo+" "+p.params.AppDir)
	for _, a := range p.artifacts() {
		steps = append(steps, "render: "+a.templatePath+" -> "+a.confPath)
	}
	for _, a := range p.artifacts() {
		steps = append(steps, "symlink: "+a.linkPath+" -> "+a.confPath)
	}
	if !p.SkipReload {
		for _, svc := range services {
			steps = append(steps, "run: service "+svc+" reload")
		}
	}
	return steps
}
