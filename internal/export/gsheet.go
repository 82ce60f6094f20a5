package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/store"
)

// GSheetExporter pushes the admin task overview into a spreadsheet on a cron
// schedule, so the hiring team can watch progress without API access.
type GSheetExporter struct {
	config        *app.Config
	store         store.TaskStore
	scheduler     *gocron.Scheduler
	sheetsService *sheets.Service
}

func NewGSheetExporter(config *app.Config, taskStore store.TaskStore) (*GSheetExporter, error) {
	ctx := context.Background()
	scheduler := gocron.NewScheduler(time.UTC)

	for label, configs := range config.Export {
		for _, cfg := range configs {
			cfg := cfg
			svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
			if err != nil {
				return nil, fmt.Errorf("failed to create sheets service: %w", err)
			}

			exporter := &GSheetExporter{
				config:        config,
				store:         taskStore,
				scheduler:     scheduler,
				sheetsService: svc,
			}

			label := label
			_, err = scheduler.Cron(cfg.Schedule).Do(func() {
				if err := exporter.Export(&cfg); err != nil {
					logger.Error.Printf("Export %s failed: %v", label, err)
				}
			})
			if err != nil {
				return nil, fmt.Errorf("failed to schedule export: %w", err)
			}
		}
	}

	scheduler.StartAsync()
	return nil, nil
}

// Export rewrites the target sheet with one row per task: candidate, task,
// effective status, deadline and submission time.
func (e *GSheetExporter) Export(cfg *app.GSheetConfig) error {
	tasks, err := e.store.ListAllTasks()
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	values := [][]interface{}{
		{"Candidate", "Task", "Status", "Deadline (UTC)", "Submitted (UTC)"},
	}
	for _, task := range tasks {
		assignee := ""
		if task.AssignedToName != nil {
			assignee = *task.AssignedToName
		}
		submitted := ""
		if task.SubmittedAt != nil {
			submitted = time.Unix(*task.SubmittedAt, 0).UTC().Format("2006-01-02 15:04")
		}
		values = append(values, []interface{}{
			assignee,
			task.TaskName,
			task.EffectiveStatus,
			time.Unix(task.Deadline, 0).UTC().Format("2006-01-02 15:04"),
			submitted,
		})
	}

	values = append(values, []interface{}{
		fmt.Sprintf("UPD: %s", time.Now().UTC().Format("2 January 15:04")),
	})

	updateRange := fmt.Sprintf("%s!A1", cfg.SheetName)
	_, err = e.sheetsService.Spreadsheets.Values.Update(cfg.SpreadsheetID, updateRange,
		&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}

	return nil
}
