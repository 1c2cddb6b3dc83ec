package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/webhostinit/internal/config"
	"github.com/ksyq12/webhostinit/internal/errors"
	"github.com/ksyq12/webhostinit/internal/executor"
	"github.com/ksyq12/webhostinit/internal/output"
	"github.com/ksyq12/webhostinit/internal/provision"
)

var (
	appName      string
	vhostsRoot   string
	certRoot     string
	nginxUser    string
	nginxConfDir string
	fpmConfDir   string
	logrotateDir string
	repoURL      string
	defaultsFile string
	dryRun       bool
	noReload     bool
)

// Hooks replaced in tests.
var (
	newRunner = func() executor.CommandRunner { return executor.NewSystem() }
	geteuid   = os.Geteuid
)

func init() {
	rootCmd.Flags().StringVarP(&appName, "app", "a", "", "Application name (default \"webhost\")")
	rootCmd.Flags().StringVar(&vhostsRoot, "vhosts-root", "", "Root directory for vhost projects (default \"/srv/www\")")
	rootCmd.Flags().StringVar(&certRoot, "cert-root", "", "Webroot for certificate challenges (default \"{vhosts-root}/default/public\")")
	rootCmd.Flags().StringVar(&nginxUser, "nginx-user", "", "User the web server runs as (default \"nginx\")")
	rootCmd.Flags().StringVar(&nginxConfDir, "nginx-conf-dir", "", "Nginx vhost configuration directory (default \"/etc/nginx/conf.d\")")
	rootCmd.Flags().StringVar(&fpmConfDir, "fpm-conf-dir", "", "PHP-FPM pool configuration directory (default \"/etc/php-fpm.d\")")
	rootCmd.Flags().StringVar(&logrotateDir, "logrotate-dir", "", "Logrotate configuration directory (default \"/etc/logrotate.d\")")
	rootCmd.Flags().StringVar(&repoURL, "repo", "", "Application repository to clone")
	rootCmd.Flags().StringVar(&defaultsFile, "config", config.DefaultsPath, "Site defaults file")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the provisioning plan without executing it")
	rootCmd.Flags().BoolVar(&noReload, "no-reload", false, "Don't reload nginx and php-fpm")
}

func requireRoot() error {
	if geteuid() != 0 {
		return errors.ErrRootRequired
	}
	return nil
}

// buildParameters assembles deployment parameters from flags, the
// defaults file, and the positional domain argument.
func buildParameters(args []string) (*config.Parameters, error) {
	opts := config.Options{
		AppName:      appName,
		VHostsRoot:   vhostsRoot,
		CertRoot:     certRoot,
		NginxUser:    nginxUser,
		NginxConfDir: nginxConfDir,
		FpmConfDir:   fpmConfDir,
		LogrotateDir: logrotateDir,
		Repo:         repoURL,
	}
	if len(args) == 1 {
		opts.Domain = args[0]
	}

	defaults, err := config.LoadDefaults(defaultsFile)
	if err != nil {
		return nil, err
	}
	defaults.Apply(&opts)

	return config.New(opts)
}

func runProvision(cmd *cobra.Command, args []string) error {
	params, err := buildParameters(args)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	prov := provision.New(params, newRunner())
	prov.SkipReload = noReload

	if dryRun {
		return outputPlan(params, prov)
	}

	if err := requireRoot(); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if err := prov.Run(); err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(map[string]interface{}{
			"success":      true,
			"app":          params.AppName,
			"domain":       params.Domain,
			"project_root": params.ProjectRoot,
		})
	}
	output.Success("Provisioned %s for %s", params.AppName, params.Domain)
	return nil
}

func outputPlan(params *config.Parameters, prov *provision.Provisioner) error {
	steps := prov.Plan()
	if jsonOutput {
		return output.JSON(map[string]interface{}{
			"app":    params.AppName,
			"domain": params.Domain,
			"steps":  steps,
		})
	}
	output.Info("Provisioning plan for %s (%s):", params.AppName, params.Domain)
	for _, step := range steps {
		output.Print("  %s", step)
	}
	return nil
}
