// Command admin is an operator CLI over the portfolio API.
//
//	admin [-api URL] <command> [args]
//
// Commands: stats, admins, prune, messages, read <id>, unread <id>, delete-message <id>,
// projects, delete-project <id>, experiences, delete-experience <id>, hash-password <password>.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"devfolio-backend-go/internal/client"
	"devfolio-backend-go/internal/manager"
	"devfolio-backend-go/internal/models"
	"devfolio-backend-go/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	apiURL := flag.String("api", envOr("DEVFOLIO_API", "http://localhost:8080"), "API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "overall command timeout")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *apiURL, flag.Arg(0), flag.Args()[1:]); err != nil {
		svcErr := services.AsServiceError(err)
		fmt.Fprintf(os.Stderr, "error: %s (%s)\n", svcErr.Message, svcErr.Kind.Code())
		if svcErr.Retryable() {
			fmt.Fprintln(os.Stderr, "the request may succeed if retried")
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: admin [-api URL] <command> [args]

commands:
  stats                      content counts and upload usage
  admins                     list admin identities
  prune                      delete uploads no row references
  messages                   list contact messages
  read <id> | unread <id>    set a message's read flag
  delete-message <id>
  projects                   list projects
  delete-project <id>
  experiences                list experiences
  delete-experience <id>
  hash-password <password>   print a hash for ADMIN_PASSWORD_HASH

authentication: DEVFOLIO_TOKEN, or ADMIN_EMAIL with DEVFOLIO_PASSWORD
`)
	flag.PrintDefaults()
}

func run(ctx context.Context, apiURL, command string, args []string) error {
	if command == "hash-password" {
		if len(args) != 1 {
			return services.ErrValidation("hash-password takes exactly one argument", nil)
		}
		hash, err := services.TokenService{}.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	api := client.New(apiURL, os.Getenv("DEVFOLIO_TOKEN"))
	if api.Token == "" {
		email, password := os.Getenv("ADMIN_EMAIL"), os.Getenv("DEVFOLIO_PASSWORD")
		if email == "" || password == "" {
			return services.ErrUnauthenticated("Set DEVFOLIO_TOKEN or ADMIN_EMAIL and DEVFOLIO_PASSWORD")
		}
		if err := api.Login(ctx, email, password); err != nil {
			return err
		}
	}

	switch command {
	case "stats":
		return printStats(ctx, api)
	case "prune":
		result, err := api.PruneOrphans(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d orphaned file(s)\n", result.Cleaned)
		for _, msg := range result.Errors {
			fmt.Fprintln(os.Stderr, "  failed:", msg)
		}
		return nil
	case "admins":
		return listAdmins(ctx, api)
	case "messages":
		return listMessages(ctx, api)
	case "read", "unread":
		return markMessage(ctx, api, args, command == "read")
	case "delete-message":
		return deleteWith(ctx, args, manager.New[models.ContactMessage, models.ContactPatch](
			api.Messages(), manager.Options[models.ContactMessage, models.ContactPatch]{Name: "Message"}))
	case "projects":
		return listProjects(ctx, api)
	case "delete-project":
		return deleteWith(ctx, args, manager.New[models.Project, models.ProjectInput](
			api.Projects(), manager.Options[models.Project, models.ProjectInput]{Name: "Project"}))
	case "experiences":
		return listExperiences(ctx, api)
	case "delete-experience":
		return deleteWith(ctx, args, manager.New[models.Experience, models.ExperienceInput](
			api.Experiences(), manager.Options[models.Experience, models.ExperienceInput]{Name: "Experience"}))
	}
	return services.ErrValidation("Unknown command "+strconv.Quote(command), nil)
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, services.ErrValidation("Expected exactly one id", nil)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, services.ErrValidation("Invalid id "+strconv.Quote(args[0]), nil)
	}
	return id, nil
}

// deleteWith loads the list, then drives the request/confirm delete flow for one id.
func deleteWith[T manager.Entity, I any](ctx context.Context, args []string, m *manager.Manager[T, I]) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if err := m.Mount(ctx); err != nil {
		return err
	}
	item, ok := m.Find(id)
	if !ok {
		return services.ErrNotFound("No item with id " + strconv.FormatInt(id, 10))
	}
	m.RequestDelete(item)
	if err := m.ConfirmDelete(ctx); err != nil {
		return err
	}
	printNotices(m.Snapshot().Notices)
	return nil
}

func markMessage(ctx context.Context, api *client.Client, args []string, read bool) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	messages := manager.New[models.ContactMessage, models.ContactPatch](api.Messages(), manager.Options[models.ContactMessage, models.ContactPatch]{Name: "Message"})
	if err := messages.Mount(ctx); err != nil {
		return err
	}
	if _, ok := messages.Find(id); !ok {
		return services.ErrNotFound("No message with id " + strconv.FormatInt(id, 10))
	}
	return messages.Apply(ctx, func(ctx context.Context) (models.ContactMessage, error) {
		return api.Messages().MarkRead(ctx, id, read)
	})
}

func printNotices(notices []manager.Notice) {
	for _, notice := range notices {
		fmt.Printf("[%s] %s\n", notice.Level, notice.Message)
	}
}

func printStats(ctx context.Context, api *client.Client) error {
	stats, err := api.Stats(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "projects\t%d (%d featured)\n", stats.Projects, stats.FeaturedProjects)
	fmt.Fprintf(w, "experiences\t%d\n", stats.Experiences)
	fmt.Fprintf(w, "messages\t%d (%d unread)\n", stats.Messages, stats.UnreadMessages)
	fmt.Fprintf(w, "admins\t%d\n", stats.Admins)
	fmt.Fprintf(w, "uploads\t%d bytes\n", stats.UploadsBytes)
	fmt.Fprintf(w, "live listeners\t%d\n", stats.LiveListeners)
	return w.Flush()
}

func listAdmins(ctx context.Context, api *client.Client) error {
	items, err := api.Admins(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXTERNAL ID\tEMAIL\tNAME\tSINCE")
	for _, a := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.ExternalID, a.Email, a.Name, a.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

func listMessages(ctx context.Context, api *client.Client) error {
	items, err := api.Messages().List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREAD\tRECEIVED\tFROM\tMESSAGE")
	for _, msg := range items {
		fmt.Fprintf(w, "%d\t%t\t%s\t%s <%s>\t%s\n", msg.ID, msg.Read, msg.CreatedAt.Format(time.DateTime), msg.Name, msg.Email, truncate(msg.Message, 60))
	}
	return w.Flush()
}

func listProjects(ctx context.Context, api *client.Client) error {
	items, err := api.Projects().List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFEATURED\tTITLE\tIMAGE")
	for _, p := range items {
		fmt.Fprintf(w, "%d\t%t\t%s\t%s\n", p.ID, p.Featured, p.Title, p.ImageURL)
	}
	return w.Flush()
}

func listExperiences(ctx context.Context, api *client.Client) error {
	items, err := api.Experiences().List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMPANY\tPOSITION\tPERIOD")
	for _, e := range items {
		end := "present"
		if !e.Current() {
			end = e.EndDate.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s to %s\n", e.ID, e.Company, e.Position, e.StartDate.String(), end)
	}
	return w.Flush()
}

func truncate(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	return string(runes[:n-1]) + "…"
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
