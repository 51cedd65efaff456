package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v3"

	"github.com/reillywatson/prpulse/internal/config"
	"github.com/reillywatson/prpulse/internal/cycletime"
	"github.com/reillywatson/prpulse/internal/model"
	"github.com/reillywatson/prpulse/internal/timeline"
	"github.com/reillywatson/prpulse/internal/workflow"
)

func main() {
	app := &cli.Command{
		Name:      "pr-analyzer",
		Usage:     "derive the timeline, cycle-time metrics and workflow findings for one pull request",
		ArgsUsage: "snapshot.json",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML settings file (markers, automation actors)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "emit machine-readable JSON instead of a report",
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// Report is the JSON output shape.
type Report struct {
	Status   string                  `json:"status"`
	Timeline []model.TimelineItem    `json:"timeline"`
	Metrics  model.CycleTimeMetrics  `json:"metrics"`
	Issues   []model.ValidationIssue `json:"issues"`
}

func run(_ context.Context, cmd *cli.Command) error {
	settings := config.Default()
	if path := cmd.String("config"); path != "" {
		var err error
		if settings, err = config.Load(path); err != nil {
			return err
		}
	}

	snap, err := readSnapshot(cmd.Args().First())
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "pr-analyzer",
		Level:  hclog.Warn,
		Output: os.Stderr,
	})

	status := model.DeriveStatus(snap)
	items := timeline.NewBuilder(settings, logger).Build(snap)
	metrics := cycletime.Calculate(snap, settings.WorkStartedMarker, logger)
	issues := workflow.New(settings.WorkStartedMarker).Validate(status, snap.CreatedAt, items)

	report := Report{Status: status, Timeline: items, Metrics: metrics, Issues: issues}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(snap, report)
	return nil
}

// readSnapshot decodes a materialized PR snapshot from a file, or from
// stdin when the path is "-" or absent.
func readSnapshot(path string) (model.PullRequestSnapshot, error) {
	var snap model.PullRequestSnapshot

	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return snap, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

func printReport(snap model.PullRequestSnapshot, report Report) {
	header := color.New(color.FgCyan, color.Bold)
	errc := color.New(color.FgRed)
	warnc := color.New(color.FgYellow)

	_, _ = header.Printf("\nPR #%d: %s [%s]\n", snap.Number, snap.Title, report.Status)
	fmt.Println(strings.Repeat("-", 40))

	fmt.Println("\nTimeline:")
	if len(report.Timeline) == 0 {
		fmt.Println("  (empty)")
	}
	for _, it := range report.Timeline {
		indent := strings.Repeat("  ", it.IndentLevel)
		actor := ""
		if it.Actor != "" {
			actor = " (" + it.Actor + ")"
		}
		fmt.Printf("  %s%s  %s%s\n", indent, it.Time.Format("2006-01-02 15:04"), it.Title, actor)
	}

	fmt.Println("\nCycle Time (business hours):")
	fmt.Printf("  Commit to Open:     %.2f\n", report.Metrics.CommitToOpen)
	fmt.Printf("  Open to Review:     %.2f\n", report.Metrics.OpenToReview)
	fmt.Printf("  Review to Approval: %.2f\n", report.Metrics.ReviewToApproval)
	fmt.Printf("  Approval to Merge:  %.2f\n", report.Metrics.ApprovalToMerge)

	fmt.Println("\nWorkflow Findings:")
	if len(report.Issues) == 0 {
		fmt.Println("  None found")
		return
	}
	for _, issue := range report.Issues {
		line := fmt.Sprintf("  [%s] %s: %s", issue.Severity, issue.Type, issue.Message)
		switch issue.Severity {
		case model.SeverityError:
			_, _ = errc.Println(line)
		case model.SeverityWarning:
			_, _ = warnc.Println(line)
		default:
			fmt.Println(line)
		}
	}
}
