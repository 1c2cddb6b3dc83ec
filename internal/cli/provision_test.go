package cli

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ksyq12/webhostinit/internal/config"
	"github.com/ksyq12/webhostinit/internal/errors"
	"github.com/ksyq12/webhostinit/internal/executor"
)

// currentGroup returns a group name chgrp can succeed with as the
// current user.
func currentGroup(t *testing.T) string {
	t.Helper()
	u, err := user.Current()
	if err != nil {
		t.Skipf("cannot determine current user: %v", err)
	}
	g, err := user.LookupGroupId(u.Gid)
	if err != nil {
		t.Skipf("cannot resolve current group: %v", err)
	}
	return g.Name
}

// resetFlags restores the flag variables the tests mutate.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		appName = ""
		vhostsRoot = ""
		certRoot = ""
		nginxUser = ""
		nginxConfDir = ""
		fpmConfDir = ""
		logrotateDir = ""
		repoURL = ""
		defaultsFile = config.DefaultsPath
		dryRun = false
		noReload = false
		jsonOutput = false
	})
}

// setupRoots creates the root directories and points the flags at them.
func setupRoots(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	vhostsRoot = filepath.Join(base, "srv", "www")
	certRoot = filepath.Join(base, "srv", "www", "default", "public")
	nginxConfDir = filepath.Join(base, "etc", "nginx", "conf.d")
	fpmConfDir = filepath.Join(base, "etc", "php-fpm.d")
	logrotateDir = filepath.Join(base, "etc", "logrotate.d")
	for _, dir := range []string{vhostsRoot, certRoot, nginxConfDir, fpmConfDir, logrotateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	defaultsFile = filepath.Join(base, "webhostinit.yaml")
	return base
}

func asRoot(t *testing.T) {
	t.Helper()
	orig := geteuid
	geteuid = func() int { return 0 }
	t.Cleanup(func() { geteuid = orig })
}

func withMockRunner(t *testing.T, mock *executor.Mock) {
	t.Helper()
	orig := newRunner
	newRunner = func() executor.CommandRunner { return mock }
	t.Cleanup(func() { newRunner = orig })
}

func TestRunProvision_InvalidDomain(t *testing.T) {
	resetFlags(t)
	setupRoots(t)

	err := runProvision(rootCmd, []string{"-bad-.example.com"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.HasPrefix(err.Error(), "initialization failed: ") {
		t.Errorf("error %q missing initialization context", err)
	}
	var perr *errors.ProvisionError
	if !errors.As(err, &perr) || perr.Code != errors.ErrCodeValidation {
		t.Errorf("expected VALIDATION error through the wrap, got %v", err)
	}
}

func TestRunProvision_RequiresRoot(t *testing.T) {
	resetFlags(t)
	setupRoots(t)

	orig := geteuid
	geteuid = func() int { return 1000 }
	t.Cleanup(func() { geteuid = orig })
	withMockRunner(t, &executor.Mock{})

	err := runProvision(rootCmd, []string{"acme.example.com"})
	if !errors.Is(err, errors.ErrRootRequired) {
		t.Errorf("expected ErrRootRequired, got %v", err)
	}
}

func TestRunProvision_DryRun(t *testing.T) {
	resetFlags(t)
	setupRoots(t)
	appName = "acme"
	dryRun = true

	// Dry runs need neither root nor a real command runner.
	mock := &executor.Mock{}
	withMockRunner(t, mock)

	if err := runProvision(rootCmd, []string{"acme.example.com"}); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	if len(mock.Calls) != 0 {
		t.Errorf("dry run executed commands: %v", mock.Calls)
	}
	if _, err := os.Stat(filepath.Join(vhostsRoot, "acme")); !os.IsNotExist(err) {
		t.Error("dry run created the project root")
	}
}

func TestRunProvision_Success(t *testing.T) {
	resetFlags(t)
	setupRoots(t)
	asRoot(t)
	appName = "acme"
	nginxUser = currentGroup(t)
	noReload = true

	mock := &executor.Mock{
		RunFunc: func(name string, args ...string) error {
			if name != "git" {
				return nil
			}
			confDir := filepath.Join(args[len(args)-1], "resources", "conf")
			if err := os.MkdirAll(confDir, 0o755); err != nil {
				return err
			}
			for _, kind := range []string{"nginx", "fpm", "logrotate"} {
				content := "# %APP_NAME% " + kind + "\n"
				if err := os.WriteFile(filepath.Join(confDir, kind+".conf"), []byte(content), 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}
	withMockRunner(t, mock)

	if err := runProvision(rootCmd, []string{"acme.example.com"}); err != nil {
		t.Fatalf("runProvision failed: %v", err)
	}

	rendered := filepath.Join(vhostsRoot, "acme", "conf", "nginx.conf")
	data, err := os.ReadFile(rendered)
	if err != nil {
		t.Fatalf("read rendered config: %v", err)
	}
	if !strings.Contains(string(data), "# acme nginx") {
		t.Errorf("rendered content = %q", data)
	}

	if _, err := os.Readlink(filepath.Join(nginxConfDir, "acme.conf")); err != nil {
		t.Errorf("nginx symlink missing: %v", err)
	}
}

func TestRunProvision_DefaultsFile(t *testing.T) {
	resetFlags(t)
	setupRoots(t)
	dryRun = true
	withMockRunner(t, &executor.Mock{})

	content := "app: shop\nnginx_user: www-data\n"
	if err := os.WriteFile(defaultsFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write defaults: %v", err)
	}

	params, err := buildParameters([]string{"shop.example.com"})
	if err != nil {
		t.Fatalf("buildParameters failed: %v", err)
	}
	if params.AppName != "shop" {
		t.Errorf("AppName = %q, want shop from defaults file", params.AppName)
	}
	if params.NginxUser != "www-data" {
		t.Errorf("NginxUser = %q, want www-data from defaults file", params.NginxUser)
	}
}

func TestRunProvision_FlagBeatsDefaultsFile(t *testing.T) {
	resetFlags(t)
	setupRoots(t)
	appName = "flagged"

	if err := os.WriteFile(defaultsFile, []byte("app: filed\n"), 0o644); err != nil {
		t.Fatalf("write defaults: %v", err)
	}

	params, err := buildParameters(nil)
	if err != nil {
		t.Fatalf("buildParameters failed: %v", err)
	}
	if params.AppName != "flagged" {
		t.Errorf("AppName = %q, flag must beat defaults file", params.AppName)
	}
	// Domain falls back to the app name when no positional arg is given.
	if params.Domain != "flagged" {
		t.Errorf("Domain = %q, want flagged", params.Domain)
	}
}

func TestRunProvision_FailurePropagates(t *testing.T) {
	resetFlags(t)
	setupRoots(t)
	asRoot(t)
	appName = "acme"
	nginxUser = currentGroup(t)

	mock := &executor.Mock{
		RunFunc: func(name string, args ...string) error {
			if name == "git" {
				return fmt.Errorf("clone refused")
			}
			return nil
		},
	}
	withMockRunner(t, mock)

	err := runProvision(rootCmd, []string{"acme.example.com"})
	if err == nil {
		t.Fatal("expected clone failure to propagate")
	}
	if strings.HasPrefix(err.Error(), "initialization failed") {
		t.Errorf("run-stage error must not carry the initialization prefix: %v", err)
	}
}
