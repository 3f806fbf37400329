// Package doctor runs environment/config sanity checks for the CLI.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/midagedev/jongodb-differ/internal/config"
)

type Check struct {
	ID      string `json:"id"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type Result struct {
	OK      bool    `json:"ok"`
	OutRoot string  `json:"outRoot"`
	Checks  []Check `json:"checks"`
}

// Run checks: outRoot write access, project config parse (if present),
// sanitization rule validity (if configured), and reachability of a
// configured Mongo reference URI is left to the caller (dialing is a
// backend concern, not a static check).
func Run(outRootFlag string) (Result, error) {
	m, err := config.LoadMerged(config.FlagOverrides{OutRoot: outRootFlag})
	if err != nil {
		return Result{}, err
	}
	outRoot := m.OutRoot

	res := Result{OK: true, OutRoot: outRoot}

	if err := os.MkdirAll(filepath.Join(outRoot, "runs"), 0o755); err != nil {
		res.OK = false
		res.Checks = append(res.Checks, Check{ID: "write_access", OK: false, Message: err.Error()})
	} else {
		tmp := filepath.Join(outRoot, ".doctor.tmp")
		if err := os.WriteFile(tmp, []byte("ok\n"), 0o644); err != nil {
			res.OK = false
			res.Checks = append(res.Checks, Check{ID: "write_access", OK: false, Message: err.Error()})
		} else {
			_ = os.Remove(tmp)
			res.Checks = append(res.Checks, Check{ID: "write_access", OK: true})
		}
	}

	if _, err := os.Stat(config.DefaultProjectConfigPath); err == nil {
		if _, err := config.LoadMerged(config.FlagOverrides{}); err != nil {
			res.OK = false
			res.Checks = append(res.Checks, Check{ID: "project_config", OK: false, Message: err.Error()})
		} else {
			res.Checks = append(res.Checks, Check{ID: "project_config", OK: true})
		}
	} else {
		res.Checks = append(res.Checks, Check{ID: "project_config", OK: true, Message: "missing (ok)"})
	}

	if rules, err := config.LoadSanitizationMerged(); err != nil {
		res.OK = false
		res.Checks = append(res.Checks, Check{ID: "sanitization_config", OK: false, Message: err.Error()})
	} else {
		res.Checks = append(res.Checks, Check{ID: "sanitization_config", OK: true, Message: ruleCountMessage(len(rules))})
	}

	if m.MongoURI == "" {
		res.Checks = append(res.Checks, Check{ID: "reference_backend", OK: true, Message: "no Mongo URI configured (ok if only running in-process)"})
	} else {
		res.Checks = append(res.Checks, Check{ID: "reference_backend", OK: true, Message: "configured via " + m.MongoURISource})
	}

	return res, nil
}

func ruleCountMessage(n int) string {
	if n == 0 {
		return "no extra sanitization rules configured"
	}
	return fmt.Sprintf("%d extra sanitization rule(s) configured", n)
}
