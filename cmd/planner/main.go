// Command planner is a terminal client for the planner API: it drives the
// same endpoints the web UI uses and hosts the interactive study timer.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/studyhall/planner-api/internal/client"
	"github.com/studyhall/planner-api/internal/dto"
	"github.com/studyhall/planner-api/internal/models"
	"github.com/studyhall/planner-api/internal/timer"
)

func main() {
	baseURL := flag.String("server", envOr("PLANNER_SERVER", "http://localhost:8080"), "planner API base URL")
	token := flag.String("token", os.Getenv("PLANNER_TOKEN"), "access token (or set PLANNER_TOKEN)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	api := client.New(*baseURL)
	if *token != "" {
		api.SetToken(*token)
	}

	ctx := context.Background()
	var err error
	switch args[0] {
	case "login":
		err = runLogin(ctx, api, args[1:])
	case "today":
		err = runToday(ctx, api)
	case "tasks":
		err = runTasks(ctx, api, args[1:])
	case "subjects":
		err = runSubjects(ctx, api, args[1:])
	case "timer":
		err = runTimer(ctx, api)
	case "export":
		err = runExport(ctx, api, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: planner [-server URL] [-token TOKEN] <command>

commands:
  login <email>            authenticate and print an access token
  today                    today's classes and top pending tasks
  tasks [list|done <id>]   list tasks or mark one complete
  subjects [list|add <name> <color>|rm <id>]
  timer                    interactive study stopwatch
  export <type> <format>   queue an export (timetable|tasks|sessions, csv|pdf)`)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runLogin(ctx context.Context, api *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: planner login <email>")
	}
	fmt.Fprint(os.Stderr, "password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	res, err := api.Login(ctx, args[0], strings.TrimSpace(password))
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s %s\n", res.User.FirstName, res.User.LastName)
	fmt.Printf("export PLANNER_TOKEN=%s\n", res.AccessToken)
	return nil
}

func runToday(ctx context.Context, api *client.Client) error {
	classes, err := api.ListClasses(ctx)
	if err != nil {
		return err
	}
	tasks, err := api.ListTasks(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	fmt.Printf("%s\n\n", now.Format("Monday, January 2"))

	today := dto.ClassesForDay(classes, int(now.Weekday()))
	if len(today) == 0 {
		fmt.Println("no classes today")
	}
	for _, class := range today {
		subject := "(no subject)"
		if class.Subject != nil {
			subject = class.Subject.Name
		}
		fmt.Printf("  %s-%s  %s\n", class.StartTime, class.EndTime, subject)
	}

	pending := dto.PendingTasks(tasks, 5)
	if len(pending) > 0 {
		fmt.Println("\npending tasks:")
		for _, task := range pending {
			fmt.Printf("  %s  %s (%s)\n", task.DueDate.Format("Jan 02"), task.Title, task.Priority)
		}
	}
	return nil
}

func runTasks(ctx context.Context, api *client.Client, args []string) error {
	if len(args) >= 2 && args[0] == "done" {
		done := true
		task, err := api.UpdateTask(ctx, args[1], dto.UpdateTaskInput{IsCompleted: &done})
		if err != nil {
			return err
		}
		fmt.Printf("completed: %s\n", task.Title)
		return nil
	}

	tasks, err := api.ListTasks(ctx)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		mark := " "
		if task.IsCompleted {
			mark = "x"
		}
		fmt.Printf("[%s] %s  %s  due %s\n", mark, task.ID, task.Title, task.DueDate.Format("2006-01-02"))
	}
	return nil
}

func runSubjects(ctx context.Context, api *client.Client, args []string) error {
	if len(args) >= 3 && args[0] == "add" {
		subject, err := api.CreateSubject(ctx, dto.CreateSubjectInput{Name: args[1], Color: args[2]})
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", subject.Name, subject.ID)
		return nil
	}
	if len(args) >= 2 && args[0] == "rm" {
		if err := api.DeleteSubject(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil
	}

	subjects, err := api.ListSubjects(ctx)
	if err != nil {
		return err
	}
	for _, subject := range subjects {
		fmt.Printf("%s  %s  %s\n", subject.ID, subject.Color, subject.Name)
	}
	return nil
}

// runTimer drives the stopwatch: start/stop/save/discard from stdin while a
// background goroutine repaints the elapsed display once per second.
func runTimer(ctx context.Context, api *client.Client) error {
	tm := timer.New(api)

	tickCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go tm.Run(tickCtx, func(display string) {
		fmt.Printf("\r%s ", display)
	})

	fmt.Println("commands: start, stop, save <title>, discard, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "start":
			if err := tm.Start(); err != nil {
				fmt.Println(err)
			}
		case "stop":
			if err := tm.Stop(); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("\relapsed %s, save <title> or discard\n", tm.Display())
		case "save":
			if len(fields) < 2 {
				fmt.Println("usage: save <title>")
				continue
			}
			title := strings.Join(fields[1:], " ")
			session, err := tm.Save(ctx, title, nil)
			if err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Printf("saved %q (%s)\n", session.Title, timer.FormatElapsed(session.Duration()))
		case "discard":
			if err := tm.Discard(); err != nil {
				fmt.Println(err)
			}
		case "quit", "exit":
			return nil
		default:
			fmt.Println("commands: start, stop, save <title>, discard, quit")
		}
	}
	return scanner.Err()
}

func runExport(ctx context.Context, api *client.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: planner export <timetable|tasks|sessions> <csv|pdf>")
	}
	job, err := api.CreateExport(ctx, dto.CreateExportInput{
		Type:   models.ExportType(args[0]),
		Format: models.ExportFormat(args[1]),
	})
	if err != nil {
		return err
	}
	fmt.Printf("queued job %s\n", job.ID)

	// Poll briefly so the common case prints a download link right away.
	for i := 0; i < 10; i++ {
		time.Sleep(time.Second)
		job, err = api.GetExport(ctx, job.ID)
		if err != nil {
			return err
		}
		if job.Status == models.ExportStatusFinished && job.DownloadURL != nil {
			fmt.Printf("ready: %s\n", *job.DownloadURL)
			return nil
		}
		if job.Status == models.ExportStatusFailed {
			msg := "export failed"
			if job.ErrorMessage != nil {
				msg = *job.ErrorMessage
			}
			return fmt.Errorf("%s", msg)
		}
	}
	fmt.Printf("still %s, job id %s\n", job.Status, job.ID)
	return nil
}
