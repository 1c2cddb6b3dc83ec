// Package platform probes where the local system keeps its web server
// and PHP-FPM configuration.
package platform

import (
	"os"
	"path/filepath"
	"sort"
)

// fpmConfDirPatterns are the known PHP-FPM pool directory layouts, RHEL
// style first, then the versioned Debian/Ubuntu style.
var fpmConfDirPatterns = []string{
	"/etc/php-fpm.d",
	"/etc/php/*/fpm/pool.d",
}

// PathExists reports whether path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FpmConfDirs returns the PHP-FPM pool directories present on this
// system, in a stable order.
func FpmConfDirs() []string {
	return fpmConfDirsFrom(fpmConfDirPatterns)
}

func fpmConfDirsFrom(patterns []string) []string {
	var dirs []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if PathExists(m) {
				dirs = append(dirs, m)
			}
		}
	}
	sort.Strings(dirs)
	return dirs
}
