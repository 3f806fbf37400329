// Package cli wires the jongodb-differ subcommands together: it owns flag
// parsing, exit codes, and the --json machine-output convention, and
// otherwise delegates to the internal/* packages that do the actual work.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/config"
	"github.com/midagedev/jongodb-differ/internal/contract"
	"github.com/midagedev/jongodb-differ/internal/doctor"
	"github.com/midagedev/jongodb-differ/internal/fixture"
	"github.com/midagedev/jongodb-differ/internal/gc"
	"github.com/midagedev/jongodb-differ/internal/harness"
	"github.com/midagedev/jongodb-differ/internal/pin"
	"github.com/midagedev/jongodb-differ/internal/qualitygate"
	"github.com/midagedev/jongodb-differ/internal/replaybundle"
	"github.com/midagedev/jongodb-differ/internal/report"
	"github.com/midagedev/jongodb-differ/internal/runstore"
	"github.com/midagedev/jongodb-differ/internal/store"
	"github.com/midagedev/jongodb-differ/internal/unifiedspec"
	"github.com/midagedev/jongodb-differ/internal/validate"
)

type Runner struct {
	Version string
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
}

func (r Runner) Run(args []string) int {
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
	if r.Now == nil {
		r.Now = time.Now
	}

	defer r.logger().Sync()

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printRootHelp(r.Stdout)
		return 0
	}

	switch args[0] {
	case "contract":
		return r.runContract(args[1:])
	case "init":
		return r.runInit(args[1:])
	case "corpus":
		return r.runCorpus(args[1:])
	case "replay":
		return r.runReplay(args[1:])
	case "fixture":
		return r.runFixture(args[1:])
	case "gate":
		return r.runGate(args[1:])
	case "report":
		return r.runReport(args[1:])
	case "validate":
		return r.runValidate(args[1:])
	case "doctor":
		return r.runDoctor(args[1:])
	case "gc":
		return r.runGC(args[1:])
	case "pin":
		return r.runPin(args[1:])
	case "version":
		fmt.Fprintf(r.Stdout, "%s\n", r.Version)
		return 0
	default:
		fmt.Fprintf(r.Stderr, "JD_E_USAGE: unknown command %q\n", args[0])
		printRootHelp(r.Stderr)
		return 2
	}
}

func (r Runner) runContract(args []string) int {
	fs := flag.NewFlagSet("contract", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("contract: invalid flags")
	}
	if *help {
		printContractHelp(r.Stdout)
		return 0
	}
	if !*jsonOut {
		printContractHelp(r.Stderr)
		return r.failUsage("contract: require --json for stable output")
	}
	return r.writeJSON(contract.Build(r.Version))
}

func (r Runner) runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	outRoot := fs.String("out-root", "", "project output root (default from config/env, else .jongodb-differ)")
	configPath := fs.String("config", config.DefaultProjectConfigPath, "project config path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("init: invalid flags")
	}
	if *help {
		printInitHelp(r.Stdout)
		return 0
	}

	m, err := config.LoadMerged(config.FlagOverrides{OutRoot: *outRoot})
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	res, err := config.InitProject(*configPath, m.OutRoot)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	if *jsonOut {
		return r.writeJSON(res)
	}
	fmt.Fprintf(r.Stdout, "init: OK outRoot=%s config=%s created=%v\n", res.OutRoot, res.ConfigPath, res.Created)
	return 0
}

type corpusResultJSON struct {
	RunID   string                      `json:"runId"`
	Report  harness.DifferentialReport  `json:"report"`
	Replays []replaybundle.ReplayResult `json:"replays"`
}

func (r Runner) runCorpus(args []string) int {
	fs := flag.NewFlagSet("corpus", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	specRoot := fs.String("spec-root", "", "unified-spec case root (required)")
	leftURI := fs.String("left-uri", "", "mongodb URI of the engine under test (required)")
	rightURI := fs.String("right-uri", "", "mongodb URI of the reference server (required)")
	dbPrefix := fs.String("db-prefix", "jongodb-differ", "scenario-local database name prefix")
	suiteID := fs.String("suite-id", "corpus", "suite id for replay bundle naming")
	importProfile := fs.String("import-profile", "", "strict|compat (default from config)")
	parallelism := fs.Int("parallelism", 4, "max concurrent scenarios")
	replayLimit := fs.Int("replay-limit", 20, "max failure replays to execute immediately")
	outRoot := fs.String("out-root", "", "project output root (default from config/env)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("corpus: invalid flags")
	}
	if *help {
		printCorpusHelp(r.Stdout)
		return 0
	}
	if strings.TrimSpace(*specRoot) == "" || strings.TrimSpace(*leftURI) == "" || strings.TrimSpace(*rightURI) == "" {
		printCorpusHelp(r.Stderr)
		return r.failUsage("corpus: require --spec-root, --left-uri and --right-uri")
	}
	if !*jsonOut {
		printCorpusHelp(r.Stderr)
		return r.failUsage("corpus: require --json for stable output")
	}

	m, err := config.LoadMerged(config.FlagOverrides{OutRoot: *outRoot, ImportProfile: *importProfile})
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}

	ctx := context.Background()
	left, err := backend.NewReferenceBackend(ctx, *leftURI, *dbPrefix+"_left")
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	defer left.Close(context.Background())
	right, err := backend.NewReferenceBackend(ctx, *rightURI, *dbPrefix+"_right")
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	defer right.Close(context.Background())

	runOnCtx, err := detectRunOnContext(ctx, right.Client)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}

	imported, err := unifiedspec.Import(*specRoot, m.ImportProfile, runOnCtx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_USAGE: %s\n", err.Error())
		return 2
	}

	log := r.logger()
	log.Info("corpus.imported", zap.Int("scenarios", len(imported)),
		zap.String("serverVersion", runOnCtx.ServerVersion), zap.String("topology", runOnCtx.Topology))

	h := harness.New(left, right, *parallelism)
	runID, runDir, err := runstore.CreateRunDir(m.OutRoot, r.Now())
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	bundleDir := filepath.Join(m.OutRoot, "bundles", *suiteID)

	log.Info("corpus.run.start", zap.String("runId", runID), zap.Int("parallelism", *parallelism))
	dr, replays, err := unifiedspec.RunCorpus(ctx, *suiteID, imported, h, bundleDir, *replayLimit, left)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	total, match, mismatch, errCount := dr.Counters()
	log.Info("corpus.run.done", zap.String("runId", runID), zap.Int("total", total),
		zap.Int("match", match), zap.Int("mismatch", mismatch), zap.Int("error", errCount),
		zap.Int("replays", len(replays)))

	if err := report.WriteDifferentialReportJSON(filepath.Join(runDir, "differential-report.json"), dr); err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}

	return r.writeJSON(corpusResultJSON{RunID: runID, Report: dr, Replays: replays})
}

// detectRunOnContext derives a RunOnContext from a live server's hello and
// buildInfo responses, per unifiedspec's doc comment: "obtained once per
// run from the reference server's buildInfo+hello."
func detectRunOnContext(ctx context.Context, client *mongo.Client) (unifiedspec.RunOnContext, error) {
	var hello bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return unifiedspec.RunOnContext{}, fmt.Errorf("cli: hello: %w", err)
	}
	var build bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&build); err != nil {
		return unifiedspec.RunOnContext{}, fmt.Errorf("cli: buildInfo: %w", err)
	}

	topology := "single"
	if msg, _ := hello["msg"].(string); msg == "isdbgrid" {
		topology = "sharded"
	} else if _, ok := hello["setName"]; ok {
		topology = "replicaset"
	}
	version, _ := build["version"].(string)
	return unifiedspec.RunOnContext{ServerVersion: version, Topology: topology}, nil
}

func (r Runner) runReplay(args []string) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bundleDir := fs.String("bundle-dir", "", "directory the failure bundle was saved under (required)")
	failureID := fs.String("failure-id", "", "failure id to replay (required)")
	uri := fs.String("uri", "", "mongodb URI of the backend to replay against (required)")
	dbPrefix := fs.String("db-prefix", "jongodb-differ-replay", "scenario-local database name prefix")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("replay: invalid flags")
	}
	if *help {
		printReplayHelp(r.Stdout)
		return 0
	}
	if strings.TrimSpace(*bundleDir) == "" || strings.TrimSpace(*failureID) == "" || strings.TrimSpace(*uri) == "" {
		printReplayHelp(r.Stderr)
		return r.failUsage("replay: require --bundle-dir, --failure-id and --uri")
	}
	if !*jsonOut {
		printReplayHelp(r.Stderr)
		return r.failUsage("replay: require --json for stable output")
	}

	ctx := context.Background()
	b, err := backend.NewReferenceBackend(ctx, *uri, *dbPrefix)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	defer b.Close(context.Background())

	bundle, err := replaybundle.Load(*bundleDir, *failureID)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_MISSING_ARTIFACT: %s\n", err.Error())
		return 1
	}
	result, err := replaybundle.Replay(ctx, b, bundle)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	exit := r.writeJSON(result)
	if exit != 0 {
		return exit
	}
	if !result.ProbeMatched {
		return 2
	}
	return 0
}

func (r Runner) runFixture(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printFixtureHelp(r.Stdout)
		return 0
	}
	switch args[0] {
	case "refresh":
		return r.runFixtureRefresh(args[1:])
	case "sanitize":
		return r.runFixtureSanitize(args[1:])
	default:
		fmt.Fprintf(r.Stderr, "JD_E_USAGE: unknown fixture subcommand %q\n", args[0])
		printFixtureHelp(r.Stderr)
		return 2
	}
}

func (r Runner) runFixtureRefresh(args []string) int {
	fs := flag.NewFlagSet("fixture refresh", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dir := fs.String("dir", "", "fixture artifact directory (required)")
	candidates := fs.String("candidates", "", "path to a freshly captured portable.ndjson.gz (required)")
	mode := fs.String("mode", "", "full|incremental (required)")
	approve := fs.Bool("approve", false, "approve breaking changes (removed docs, dropped fields)")
	fixtureVersion := fs.String("fixture-version", "", "fixture version label to stamp into the manifest")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("fixture refresh: invalid flags")
	}
	if *help {
		printFixtureRefreshHelp(r.Stdout)
		return 0
	}
	refreshMode := fixture.RefreshMode(strings.ToUpper(strings.TrimSpace(*mode)))
	if strings.TrimSpace(*dir) == "" || strings.TrimSpace(*candidates) == "" ||
		(refreshMode != fixture.RefreshFull && refreshMode != fixture.RefreshIncremental) {
		printFixtureRefreshHelp(r.Stderr)
		return r.failUsage("fixture refresh: require --dir, --candidates and --mode full|incremental")
	}

	raw, err := os.ReadFile(*candidates)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	candidateSet, err := fixture.DecodePortable(raw)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_INVALID_JSON: %s\n", err.Error())
		return 2
	}

	prev, prevManifest, loadErr := fixture.Load(*dir, nil, r.Now())
	if loadErr != nil {
		prev = fixture.CollectionSet{}
		prevManifest = nil
	}

	merged, plans, err := fixture.Merge(refreshMode, prev, candidateSet, *approve)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}

	version := strings.TrimSpace(*fixtureVersion)
	if version == "" && prevManifest != nil {
		version = prevManifest.FixtureVersion
	}
	if version == "" {
		version = "v1"
	}

	newManifest, err := fixture.Save(*dir, merged, version, nil, r.Now(), prevManifest)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}

	pending := 0
	for _, p := range plans {
		if p.RequiresApproval {
			pending++
		}
	}

	out := struct {
		OK               bool                   `json:"ok"`
		Manifest         fixture.ManifestV1     `json:"manifest"`
		Plans            []fixture.PlannedWrite `json:"plans"`
		PendingApprovals int                    `json:"pendingApprovals"`
	}{OK: pending == 0 || *approve, Manifest: newManifest, Plans: plans, PendingApprovals: pending}

	if *jsonOut {
		if code := r.writeJSON(out); code != 0 || out.OK {
			return code
		}
		fmt.Fprintf(r.Stderr, "JD_E_GATE_FAIL: %d breaking change(s) need --approve\n", pending)
		return 1
	}
	if !out.OK {
		fmt.Fprintf(r.Stderr, "JD_E_GATE_FAIL: %d breaking change(s) need --approve\n", pending)
		return 1
	}
	fmt.Fprintf(r.Stdout, "fixture refresh: OK pendingApprovals=%d\n", pending)
	return 0
}

func (r Runner) runFixtureSanitize(args []string) int {
	fs := flag.NewFlagSet("fixture sanitize", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dir := fs.String("dir", "", "fixture artifact directory (required)")
	seed := fs.String("seed", "", "deterministic pseudonymization seed (required)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("fixture sanitize: invalid flags")
	}
	if *help {
		printFixtureSanitizeHelp(r.Stdout)
		return 0
	}
	if strings.TrimSpace(*dir) == "" || strings.TrimSpace(*seed) == "" {
		printFixtureSanitizeHelp(r.Stderr)
		return r.failUsage("fixture sanitize: require --dir and --seed")
	}

	set, manifest, err := fixture.Load(*dir, nil, r.Now())
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_MISSING_ARTIFACT: %s\n", err.Error())
		return 1
	}
	rules, err := config.LoadSanitizationMerged()
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_SANITIZATION_RULES: %s\n", err.Error())
		return 2
	}

	sanitized := fixture.CollectionSet{}
	var violations []fixture.PIIViolation
	for ns, docs := range set {
		out := make([]map[string]any, 0, len(docs))
		for _, d := range docs {
			out = append(out, fixture.ApplyRules(d, rules, *seed))
		}
		sanitized[ns] = out

		var lines [][]byte
		for _, d := range out {
			line, err := store.CanonicalJSON(d)
			if err != nil {
				fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
				return 1
			}
			lines = append(lines, line)
		}
		violations = append(violations, fixture.LintPII(ns, bytes.Join(lines, []byte("\n")))...)
	}

	version := ""
	if manifest != nil {
		version = manifest.FixtureVersion
	}
	if version == "" {
		version = "v1"
	}
	newManifest, err := fixture.Save(*dir, sanitized, version, nil, r.Now(), manifest)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}

	out := struct {
		OK         bool                   `json:"ok"`
		Manifest   fixture.ManifestV1     `json:"manifest"`
		Violations []fixture.PIIViolation `json:"violations,omitempty"`
	}{OK: len(violations) == 0, Manifest: newManifest, Violations: violations}

	if *jsonOut {
		return r.writeJSON(out)
	}
	if len(violations) == 0 {
		fmt.Fprintf(r.Stdout, "fixture sanitize: OK\n")
		return 0
	}
	fmt.Fprintf(r.Stderr, "fixture sanitize: FAIL %d PII violation(s)\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(r.Stderr, "  %s\n", v.String())
	}
	return 2
}

func (r Runner) runGate(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printGateHelp(r.Stdout)
		return 0
	}
	switch args[0] {
	case "standard":
		return r.runGateStandard(args[1:])
	default:
		fmt.Fprintf(r.Stderr, "JD_E_USAGE: unknown gate subcommand %q\n", args[0])
		printGateHelp(r.Stderr)
		return 2
	}
}

func (r Runner) runGateStandard(args []string) int {
	fs := flag.NewFlagSet("gate standard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	compatPassRate := fs.Float64("compat-pass-rate", 0, "measured compatibility pass rate in [0,1] (required)")
	flakeRate := fs.Float64("flake-rate", 0, "measured flake rate in [0,1] (required)")
	p95 := fs.Float64("p95-latency-millis", 0, "measured p95 latency in milliseconds (required)")
	repro := fs.Float64("repro-time-p50-minutes", 0, "measured median reproduction time in minutes (required)")
	t1 := fs.Float64("t1", 0.95, "compatibility-pass-rate threshold")
	t2 := fs.Float64("t2", 0.005, "flake-rate threshold")
	t3 := fs.Float64("t3", 5.0, "p95-latency threshold (ms)")
	t4 := fs.Float64("t4", 5.0, "repro-time-p50 threshold (minutes)")
	out := fs.String("out", "", "run directory to write quality-gate-report.json into")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("gate standard: invalid flags")
	}
	if *help {
		printGateStandardHelp(r.Stdout)
		return 0
	}
	if !*jsonOut {
		printGateStandardHelp(r.Stderr)
		return r.failUsage("gate standard: require --json for stable output")
	}

	gates := qualitygate.StandardGates(*compatPassRate, *flakeRate, *p95, *repro, *t1, *t2, *t3, *t4)
	results, allPass := qualitygate.EvaluateAll(gates)

	qgr := report.QualityGateReport{
		GeneratedAt: r.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		Metrics: report.QualityGateMetrics{
			CompatibilityPassRate: *compatPassRate,
			FlakeRate:             *flakeRate,
			P95LatencyMillis:      *p95,
			ReproTimeP50Minutes:   *repro,
		},
		GateResults: results,
	}

	if strings.TrimSpace(*out) != "" {
		if err := report.WriteQualityGateReportJSON(filepath.Join(*out, "quality-gate-report.json"), qgr); err != nil {
			fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
			return 1
		}
	}

	exit := r.writeJSON(qgr)
	if exit != 0 {
		return exit
	}
	if !allPass {
		fmt.Fprintf(r.Stderr, "JD_E_GATE_FAIL: one or more standard gates failed\n")
		return 1
	}
	return 0
}

func (r Runner) runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("report: invalid flags")
	}
	if *help {
		printReportHelp(r.Stdout)
		return 0
	}
	paths := fs.Args()
	if len(paths) != 1 {
		printReportHelp(r.Stderr)
		return r.failUsage("report: require exactly one <runDir>")
	}
	runDir := paths[0]

	var md strings.Builder
	wroteAny := false

	if raw, err := os.ReadFile(filepath.Join(runDir, "differential-report.json")); err == nil {
		var dr harness.DifferentialReport
		if err := json.Unmarshal(raw, &dr); err != nil {
			fmt.Fprintf(r.Stderr, "JD_E_INVALID_JSON: %s\n", err.Error())
			return 2
		}
		md.WriteString(report.RenderDifferentialMarkdown(dr))
		wroteAny = true
	}
	if raw, err := os.ReadFile(filepath.Join(runDir, "quality-gate-report.json")); err == nil {
		var qgr report.QualityGateReport
		if err := json.Unmarshal(raw, &qgr); err != nil {
			fmt.Fprintf(r.Stderr, "JD_E_INVALID_JSON: %s\n", err.Error())
			return 2
		}
		md.WriteString(report.RenderQualityGateMarkdown(qgr))
		wroteAny = true
	}
	if !wroteAny {
		fmt.Fprintf(r.Stderr, "JD_E_MISSING_ARTIFACT: no differential-report.json or quality-gate-report.json under %s\n", runDir)
		return 1
	}

	renderedPath := filepath.Join(runDir, "report.md")
	if err := store.WriteFileAtomic(renderedPath, []byte(md.String())); err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	if *jsonOut {
		return r.writeJSON(struct {
			OK   bool   `json:"ok"`
			Path string `json:"path"`
		}{OK: true, Path: renderedPath})
	}
	fmt.Fprint(r.Stdout, md.String())
	return 0
}

func (r Runner) runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	strict := fs.Bool("strict", false, "strict mode (warnings also fail)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("validate: invalid flags")
	}
	if *help {
		printValidateHelp(r.Stdout)
		return 0
	}
	paths := fs.Args()
	if len(paths) != 1 {
		printValidateHelp(r.Stderr)
		return r.failUsage("validate: require exactly one <dir>")
	}

	res, err := validate.ValidatePath(paths[0], *strict)
	if err != nil {
		if validate.IsCliError(err, "JD_E_USAGE") {
			return r.failUsage(err.Error())
		}
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	if *jsonOut {
		exit := r.writeJSON(res)
		if exit != 0 {
			return exit
		}
		if res.OK {
			return 0
		}
		for _, f := range res.Errors {
			if f.Code == "JD_E_IO" {
				return 1
			}
		}
		return 2
	}
	if res.OK {
		fmt.Fprintf(r.Stdout, "validate: OK\n")
		for _, f := range res.Warnings {
			fmt.Fprintf(r.Stderr, "  WARN %s: %s (%s)\n", f.Code, f.Message, f.Path)
		}
		return 0
	}
	fmt.Fprintf(r.Stderr, "validate: FAIL\n")
	for _, f := range res.Errors {
		fmt.Fprintf(r.Stderr, "  %s: %s (%s)\n", f.Code, f.Message, f.Path)
	}
	for _, f := range res.Errors {
		if f.Code == "JD_E_IO" {
			return 1
		}
	}
	return 2
}

func (r Runner) runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	outRoot := fs.String("out-root", "", "project output root")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("doctor: invalid flags")
	}
	if *help {
		printDoctorHelp(r.Stdout)
		return 0
	}
	res, err := doctor.Run(*outRoot)
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	if *jsonOut {
		return r.writeJSON(res)
	}
	if res.OK {
		fmt.Fprintf(r.Stdout, "doctor: OK outRoot=%s\n", res.OutRoot)
		return 0
	}
	fmt.Fprintf(r.Stderr, "doctor: FAIL outRoot=%s\n", res.OutRoot)
	for _, c := range res.Checks {
		if !c.OK {
			fmt.Fprintf(r.Stderr, "  FAIL %s: %s\n", c.ID, c.Message)
		}
	}
	return 1
}

func (r Runner) runGC(args []string) int {
	fs := flag.NewFlagSet("gc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	outRoot := fs.String("out-root", "", "project output root")
	maxAgeDays := fs.Int("max-age-days", 30, "delete unpinned runs older than N days; 0 disables")
	maxTotalBytes := fs.Int64("max-total-bytes", 0, "delete oldest unpinned runs until under this size; 0 disables")
	dryRun := fs.Bool("dry-run", false, "print what would be deleted without deleting")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("gc: invalid flags")
	}
	if *help {
		printGCHelp(r.Stdout)
		return 0
	}
	m, err := config.LoadMerged(config.FlagOverrides{OutRoot: *outRoot})
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	res, err := gc.Run(gc.Opts{
		OutRoot:       m.OutRoot,
		Now:           r.Now(),
		MaxAgeDays:    *maxAgeDays,
		MaxTotalBytes: *maxTotalBytes,
		DryRun:        *dryRun,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	if *jsonOut {
		return r.writeJSON(res)
	}
	fmt.Fprintf(r.Stdout, "gc: OK deleted=%d kept=%d dryRun=%v\n", len(res.Deleted), len(res.Kept), res.DryRun)
	return 0
}

func (r Runner) runPin(args []string) int {
	fs := flag.NewFlagSet("pin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	outRoot := fs.String("out-root", "", "project output root")
	runID := fs.String("run-id", "", "run id to pin/unpin (required)")
	on := fs.Bool("on", false, "pin the run")
	off := fs.Bool("off", false, "unpin the run")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("pin: invalid flags")
	}
	if *help {
		printPinHelp(r.Stdout)
		return 0
	}
	if (*on && *off) || (!*on && !*off) {
		printPinHelp(r.Stderr)
		return r.failUsage("pin: require exactly one of --on or --off")
	}
	m, err := config.LoadMerged(config.FlagOverrides{OutRoot: *outRoot})
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: %s\n", err.Error())
		return 1
	}
	res, err := pin.Set(pin.Opts{OutRoot: m.OutRoot, RunID: *runID, Pinned: *on})
	if err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_USAGE: %s\n", err.Error())
		return 2
	}
	if *jsonOut {
		return r.writeJSON(res)
	}
	fmt.Fprintf(r.Stdout, "pin: OK runId=%s pinned=%v\n", res.RunID, res.Pinned)
	return 0
}

// logger builds a structured operational logger writing to r.Stderr, kept
// separate from the JD_E_* error-line protocol: logger output is for
// operator visibility into the long-running corpus command, never
// for the machine-readable exit contract.
func (r Runner) logger() *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(r.Stderr), zapcore.InfoLevel)
	return zap.New(core)
}

func (r Runner) writeJSON(v any) int {
	enc := json.NewEncoder(r.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(r.Stderr, "JD_E_IO: failed to encode json\n")
		return 1
	}
	return 0
}

func (r Runner) failUsage(msg string) int {
	fmt.Fprintf(r.Stderr, "JD_E_USAGE: %s\n", msg)
	return 2
}

func printRootHelp(w io.Writer) {
	fmt.Fprint(w, `jongodb-differ

Usage:
  jongodb-differ init [--out-root .jongodb-differ] [--config jongodb-differ.config.json] [--json]
  jongodb-differ contract --json
  jongodb-differ corpus --spec-root <dir> --left-uri <uri> --right-uri <uri> [--suite-id <id>] [--replay-limit N] --json
  jongodb-differ replay --bundle-dir <dir> --failure-id <id> --uri <uri> --json
  jongodb-differ fixture refresh --dir <fixtureDir> --candidates <portable.ndjson.gz> --mode full|incremental [--approve] [--json]
  jongodb-differ fixture sanitize --dir <fixtureDir> --seed <seed> [--json]
  jongodb-differ gate standard --compat-pass-rate F --flake-rate F --p95-latency-millis F --repro-time-p50-minutes F --json
  jongodb-differ report <runDir>
  jongodb-differ validate [--strict] [--json] <dir>
  jongodb-differ doctor [--out-root <dir>] [--json]
  jongodb-differ gc [--max-age-days N] [--max-total-bytes N] [--dry-run] [--json]
  jongodb-differ pin --run-id <runId> --on|--off [--json]
  jongodb-differ version

Commands:
  init             Initialize the project output root and config.
  contract         Print the CLI surface contract (use --json).
  corpus           Import a unified spec root and run it through the differential harness.
  replay           Replay a persisted failure bundle against a backend.
  fixture refresh  Refresh a fixture artifact from freshly captured candidate data.
  fixture sanitize Apply sanitization rules to a fixture artifact and lint for PII.
  gate standard    Evaluate the four standard quality gates.
  report           Render a run's differential and quality-gate reports as Markdown.
  validate         Validate a fixture artifact, project config, or unified-spec root.
  doctor           Check environment/config sanity.
  gc               Retention cleanup of unpinned runs.
  pin              Pin/unpin a run so gc will keep it.
  version          Print version.
`)
}

func printInitHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ init [--out-root .jongodb-differ] [--config jongodb-differ.config.json] [--json]\n")
}

func printContractHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ contract --json\n")
}

func printCorpusHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ corpus --spec-root <dir> --left-uri <uri> --right-uri <uri> [--db-prefix p] [--suite-id id] [--import-profile strict|compat] [--parallelism N] [--replay-limit N] [--out-root dir] --json\n")
}

func printReplayHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ replay --bundle-dir <dir> --failure-id <id> --uri <uri> [--db-prefix p] --json\n")
}

func printFixtureHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ fixture refresh --dir <fixtureDir> --candidates <file> --mode full|incremental [--approve] [--json]\n  jongodb-differ fixture sanitize --dir <fixtureDir> --seed <seed> [--json]\n")
}

func printFixtureRefreshHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ fixture refresh --dir <fixtureDir> --candidates <portable.ndjson.gz> --mode full|incremental [--approve] [--fixture-version v] [--json]\n")
}

func printFixtureSanitizeHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ fixture sanitize --dir <fixtureDir> --seed <seed> [--json]\n")
}

func printGateHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ gate standard --compat-pass-rate F --flake-rate F --p95-latency-millis F --repro-time-p50-minutes F [--t1..t4] [--out runDir] --json\n")
}

func printGateStandardHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ gate standard --compat-pass-rate F --flake-rate F --p95-latency-millis F --repro-time-p50-minutes F [--t1 0.95] [--t2 0.005] [--t3 5.0] [--t4 5.0] [--out runDir] --json\n")
}

func printReportHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ report [--json] <runDir>\n")
}

func printValidateHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ validate [--strict] [--json] <dir>\n")
}

func printDoctorHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ doctor [--out-root dir] [--json]\n")
}

func printGCHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ gc [--out-root dir] [--max-age-days 30] [--max-total-bytes 0] [--dry-run] [--json]\n")
}

func printPinHelp(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  jongodb-differ pin --run-id <runId> --on|--off [--out-root dir] [--json]\n")
}
