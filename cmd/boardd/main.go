package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"boardd/internal/board"
	boardrepo "boardd/internal/board/repositoryimpl"
	"boardd/pkg/storage"
)

var (
	app = kingpin.New("boardd", "Kanban board administration tool")

	dataDir         = app.Flag("data-dir", "Board data directory").Default(".boardd/data").String()
	caseInsensitive = app.Flag("case-insensitive", "Match owner names case-insensitively").Bool()

	// Owner commands
	ownersCmd = app.Command("owners", "Owner registry commands")

	ownersListCmd = ownersCmd.Command("list", "List owners with usage statistics")

	ownersAddCmd  = ownersCmd.Command("add", "Register an owner without assigning them")
	ownersAddName = ownersAddCmd.Arg("name", "Owner name").Required().String()

	ownersRemoveCmd  = ownersCmd.Command("remove", "Remove an owner from the registry and all tasks")
	ownersRemoveName = ownersRemoveCmd.Arg("name", "Owner name").Required().String()

	ownersSuggestCmd   = ownersCmd.Command("suggest", "Show autocomplete suggestions for a partial name")
	ownersSuggestQuery = ownersSuggestCmd.Arg("query", "Partial owner name").String()

	// Task commands
	tasksCmd = app.Command("tasks", "Task commands")

	tasksListCmd     = tasksCmd.Command("list", "List tasks")
	tasksListOwner   = tasksListCmd.Flag("owner", "Only tasks assigned to this owner").String()
	tasksListUnowned = tasksListCmd.Flag("unowned", "Only tasks with no owners").Bool()

	// Maintenance commands
	statsCmd          = app.Command("stats", "Statistics commands")
	statsRecomputeCmd = statsCmd.Command("recompute", "Recompute owner statistics from task state")

	migrateCmd = app.Command("migrate", "Migrate the board document to the current schema version")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Keep CLI output clean; the store logs persistence failures via slog.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx := context.Background()
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case ownersListCmd.FullCommand():
		handleOwnersList(store)
	case ownersAddCmd.FullCommand():
		handleOwnersAdd(ctx, store, *ownersAddName)
	case ownersRemoveCmd.FullCommand():
		handleOwnersRemove(ctx, store, *ownersRemoveName)
	case ownersSuggestCmd.FullCommand():
		handleOwnersSuggest(store, *ownersSuggestQuery)
	case tasksListCmd.FullCommand():
		handleTasksList(store, *tasksListOwner, *tasksListUnowned)
	case statsRecomputeCmd.FullCommand():
		store.RecomputeStatistics(ctx)
		color.Green("statistics recomputed")
	case migrateCmd.FullCommand():
		// Opening the store already migrates and persists the document.
		color.Green("document is at schema version %s", board.SchemaVersion)
	}
}

func openStore(ctx context.Context) (*board.Store, error) {
	local, err := storage.NewLocalStorage(*dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	repo := boardrepo.NewJSONRepository(local)
	return board.New(ctx, repo, board.WithCaseInsensitiveMatching(*caseInsensitive))
}

func handleOwnersList(store *board.Store) {
	owners := store.OwnersWithStats()
	if len(owners) == 0 {
		fmt.Println("no owners registered")
		return
	}
	bold := color.New(color.Bold)
	bold.Printf("%-32s %10s  %s\n", "OWNER", "TASKS", "LAST USED")
	for _, o := range owners {
		lastUsed := "never"
		if o.LastUsedAt != nil {
			lastUsed = o.LastUsedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-32s %10d  %s\n", o.Name, o.TaskCount, lastUsed)
	}
}

func handleOwnersAdd(ctx context.Context, store *board.Store, name string) {
	registered, err := store.RegisterOwner(ctx, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	color.Green("registered owner %q", registered)
}

func handleOwnersRemove(ctx context.Context, store *board.Store, name string) {
	updated := store.RemoveOwner(ctx, name)
	color.Green("removed owner %q from %d task(s)", name, updated)
}

func handleOwnersSuggest(store *board.Store, query string) {
	suggestions := store.OwnerSuggestions(query)
	if len(suggestions) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, s := range suggestions {
		fmt.Printf("%s (%d)\n", s.Name, s.TaskCount)
	}
}

func handleTasksList(store *board.Store, owner string, unowned bool) {
	var tasks []*board.Task
	switch {
	case unowned:
		tasks = store.UnownedTasks()
	case owner != "":
		tasks = store.TasksByOwner(owner)
	default:
		tasks = store.ListTasks()
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return
	}
	bold := color.New(color.Bold)
	bold.Printf("%-28s %-12s %-40s %s\n", "ID", "STATUS", "TITLE", "OWNERS")
	for _, t := range tasks {
		owners := "-"
		if len(t.Owners) > 0 {
			owners = strings.Join(t.Owners, ", ")
		}
		fmt.Printf("%-28s %-12s %-40s %s\n", t.ID, t.Status, truncate(t.Title, 40), owners)
	}
}

// truncate shortens s to at most max characters, counting runes so a
// multi-byte title is never cut mid-sequence.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
