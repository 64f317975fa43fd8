package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crewboard/internal/app"
	"crewboard/internal/config"
	"crewboard/internal/db"
	"crewboard/internal/domain"
	"crewboard/internal/engine"
	"crewboard/internal/migrate"
	"crewboard/internal/repo"
	"crewboard/internal/schedule"
	"crewboard/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "crew",
	Short: "Crewboard CLI",
	Long: `Crewboard plans field work on a scheduling grid: people, equipment, and
vehicles on one axis, dates split into day and night shifts on the other.
Projects and absences are dropped onto resource cells; equipment and vehicles
are exclusive per shift, so double bookings get rejected at drop time.
The workspace lives in .crewboard next to your crewboard.yml config.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CREWBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("team", "", "team id or name (overrides single-team default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("team", rootCmd.PersistentFlags().Lookup("team"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(teamCmd())
	rootCmd.AddCommand(resourceCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(noteCmd())
	rootCmd.AddCommand(dayEventCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default crewboard.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
}

func teamCmd() *cobra.Command {
	team := &cobra.Command{Use: "team", Short: "Manage teams"}
	team.AddCommand(teamCreateCmd())
	team.AddCommand(teamListCmd())
	team.AddCommand(teamShowCmd())
	team.AddCommand(teamMemberCmd())
	return team
}

func teamCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create team",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.CreateTeam(ctx, name, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "team name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func teamListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListTeams(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
}

func teamShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show active team",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				return printJSONOrTable(t)
			})
		},
	}
}

func teamMemberCmd() *cobra.Command {
	member := &cobra.Command{Use: "member", Short: "Manage team members"}

	var userID, role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add member",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				m, err := e.AddMember(ctx, t.ID, userID, role, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(m)
			})
		},
	}
	add.Flags().StringVar(&userID, "user", "", "user id")
	add.Flags().StringVar(&role, "role", "planner", "member role")
	_ = add.MarkFlagRequired("user")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				items, err := e.Repo.ListTeamMembers(ctx, t.ID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}

	member.AddCommand(add, list)
	return member
}

func resourceCmd() *cobra.Command {
	res := &cobra.Command{Use: "resource", Short: "Manage resources"}

	var name, kind string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				r, err := e.CreateResource(ctx, t.ID, name, kind, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(r)
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "resource name")
	add.Flags().StringVar(&kind, "kind", "", "personnel, equipment, or vehicle")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("kind")

	var filterKind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				items, err := e.Repo.ListResources(ctx, repo.ResourceFilters{TeamID: t.ID, Kind: filterKind})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Kind"})
				for _, r := range items {
					tw.AppendRow(table.Row{r.ID, r.Name, r.Kind})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&filterKind, "kind", "", "filter by kind")

	var newName string
	rename := &cobra.Command{
		Use:   "rename <resource-id>",
		Short: "Rename resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.RenameResource(ctx, args[0], newName, viper.GetString("actor-id"))
			})
		},
	}
	rename.Flags().StringVar(&newName, "name", "", "new name")
	_ = rename.MarkFlagRequired("name")

	remove := &cobra.Command{
		Use:   "remove <resource-id>",
		Short: "Remove resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteResource(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}

	res.AddCommand(add, list, rename, remove)
	return res
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}

	var name, color string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				p, err := e.CreateProject(ctx, t.ID, name, color, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "project name")
	create.Flags().StringVar(&color, "color", "", "hex color for board chips")
	_ = create.MarkFlagRequired("name")

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				items, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{TeamID: t.ID, Status: status})
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "active or archived")

	var archiveStatus string
	update := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var namePtr, colorPtr *string
				if cmd.Flags().Changed("name") {
					namePtr = &name
				}
				if cmd.Flags().Changed("color") {
					colorPtr = &color
				}
				return e.UpdateProject(ctx, args[0], archiveStatus, namePtr, colorPtr, viper.GetString("actor-id"))
			})
		},
	}
	update.Flags().StringVar(&archiveStatus, "status", "", "active or archived")
	update.Flags().StringVar(&name, "name", "", "new name")
	update.Flags().StringVar(&color, "color", "", "new color")

	remove := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteProject(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}

	prj.AddCommand(create, list, update, remove)
	return prj
}

// planCmd expands a date range into shift slots and previews the drops
// without touching any live board.
func planCmd() *cobra.Command {
	var itemID, targetID, from, to, shift, view string
	var includeWeekends bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Dry-run a range assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				catalog, err := e.LoadCatalog(ctx, t.ID)
				if err != nil {
					return err
				}
				eng := schedule.New(catalog)
				_, result, err := eng.ApplyRange(schedule.State{}, schedule.BulkRequest{
					ItemID:          itemID,
					TargetID:        targetID,
					StartDate:       from,
					EndDate:         to,
					Shift:           shift,
					IncludeWeekends: includeWeekends,
				}, view)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(result)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Date", "Shift", "Outcome"})
				for _, o := range result.Outcomes {
					outcome := "ok"
					if o.Reason != "" {
						outcome = o.Reason
					}
					tw.AppendRow(table.Row{o.Date, o.Shift, outcome})
				}
				tw.Render()
				fmt.Printf("%d slots would be created, %d rejected\n", result.Created, result.Rejected)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "work item id")
	cmd.Flags().StringVar(&targetID, "target", "", "target resource id")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&shift, "shift", "day", "day, night, or both")
	cmd.Flags().StringVar(&view, "view", domain.ViewAll, "board view mode")
	cmd.Flags().BoolVar(&includeWeekends, "include-weekends", false, "include Saturday and Sunday")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func noteCmd() *cobra.Command {
	note := &cobra.Command{Use: "note", Short: "Cell notes"}

	var resourceID, date, shift, body string
	set := &cobra.Command{
		Use:   "set",
		Short: "Pin a note to a resource cell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				n, err := e.UpsertNote(ctx, t.ID, resourceID, date, shift, body, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(n)
			})
		},
	}
	set.Flags().StringVar(&resourceID, "resource", "", "resource id")
	set.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	set.Flags().StringVar(&shift, "shift", "day", "day or night")
	set.Flags().StringVar(&body, "body", "", "note text")
	_ = set.MarkFlagRequired("resource")
	_ = set.MarkFlagRequired("date")
	_ = set.MarkFlagRequired("body")

	remove := &cobra.Command{
		Use:   "rm <note-id>",
		Short: "Remove a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				return e.DeleteNote(ctx, t.ID, args[0], viper.GetString("actor-id"))
			})
		},
	}

	var fromDate, toDate string
	list := &cobra.Command{
		Use:   "list",
		Short: "List notes in a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				items, err := e.Repo.ListNotes(ctx, t.ID, fromDate, toDate)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	list.Flags().StringVar(&fromDate, "from", "", "start date")
	list.Flags().StringVar(&toDate, "to", "", "end date")
	_ = list.MarkFlagRequired("from")
	_ = list.MarkFlagRequired("to")

	note.AddCommand(set, remove, list)
	return note
}

func dayEventCmd() *cobra.Command {
	dayEvent := &cobra.Command{Use: "day-event", Short: "Calendar day events"}

	var date, kind, label string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a day event",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				ev, err := e.AddDayEvent(ctx, t.ID, date, kind, label, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(ev)
			})
		},
	}
	add.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	add.Flags().StringVar(&kind, "kind", "info", "holiday, blocker, or info")
	add.Flags().StringVar(&label, "label", "", "label")
	_ = add.MarkFlagRequired("date")
	_ = add.MarkFlagRequired("label")

	remove := &cobra.Command{
		Use:   "rm <event-id>",
		Short: "Remove a day event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				return e.DeleteDayEvent(ctx, t.ID, args[0], viper.GetString("actor-id"))
			})
		},
	}

	dayEvent.AddCommand(add, remove)
	return dayEvent
}

func apikeyCmd() *cobra.Command {
	apikey := &cobra.Command{Use: "apikey", Short: "Manage API keys"}

	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				key, plaintext, err := e.CreateAPIKey(ctx, name, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				fmt.Printf("key id: %s\nkey:    %s\n\nStore the key now; it is not shown again.\n", key.ID, plaintext)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "key label")

	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				keys, err := e.Repo.ListAPIKeys(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(keys)
			})
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.RevokeAPIKey(ctx, args[0])
			})
		},
	}

	apikey.AddCommand(create, list, revoke)
	return apikey
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Event log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd.Context(), func(ctx context.Context, e engine.Engine, t domain.Team) error {
				events, err := e.Repo.LatestEvents(ctx, n, t.ID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("CREWBOARD_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("CREWBOARD_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Crewboard API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withTeam(ctx context.Context, fn func(context.Context, engine.Engine, domain.Team) error) error {
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		t, err := app.ResolveTeam(ctx, e, viper.GetString("team"), viper.GetString("actor-id"))
		if err != nil {
			return err
		}
		return fn(ctx, e, t)
	})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
