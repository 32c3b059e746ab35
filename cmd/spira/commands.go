package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/h0rv/spira/internal/auth"
	"github.com/h0rv/spira/internal/domain"
	"github.com/h0rv/spira/internal/spira"
	"github.com/h0rv/spira/internal/store"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var url, username, token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify and store your SpiraTeam login",
		Long: `Verify the login against the server and store it in the credentials file.

Run 'spira' without arguments to log in interactively instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}

			creds := auth.New(url, username, token)
			if err := creds.Validate(); err != nil {
				return err
			}

			user, err := s.service.Client().CurrentUser(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("login failed: %s: %w", spira.Describe(err), err)
			}

			// Keep resume state when logging in again as the same user
			if previous, err := s.files.Load(); err == nil &&
				previous.BaseURL == creds.BaseURL && previous.Username == creds.Username {
				creds.LastOpenArtifactType = previous.LastOpenArtifactType
				creds.LastOpenArtifactID = previous.LastOpenArtifactID
				creds.LastCreatedArtifactType = previous.LastCreatedArtifactType
				creds.LastCreatedProjectID = previous.LastCreatedProjectID
			}

			if err := s.files.Save(creds); err != nil {
				return err
			}

			s.logger.Info().Str("user", user.Username).Str("path", s.files.Path()).Msg("Credentials saved")
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s). Credentials saved to %s\n", user.FullName, user.Username, s.files.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "SpiraTeam base URL, e.g. https://example.spiraservice.net")
	cmd.Flags().StringVar(&username, "username", "", "SpiraTeam username")
	cmd.Flags().StringVar(&token, "token", "", "RSS token from My Profile (braces optional)")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			if err := s.files.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", s.files.Path())
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var kindFlag, filterFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the artifacts assigned to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := domain.Kinds
			if kindFlag != "" {
				kind, err := domain.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kinds = []domain.Kind{kind}
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			creds, err := s.requireCredentials()
			if err != nil {
				return err
			}

			result, err := s.service.SyncAll(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			st := store.New()
			st.SetViewer(creds.Username)
			byKind := make(map[domain.Kind][]domain.Artifact, len(domain.Kinds))
			for _, kind := range domain.Kinds {
				byKind[kind] = result.ByKind(kind)
			}
			if _, err := st.ReplaceAll(byKind); err != nil {
				return err
			}

			var rows [][]string
			for _, kind := range kinds {
				for _, a := range st.Filter(kind, filterFlag) {
					rows = append(rows, []string{
						a.DisplayID(),
						a.ProjectName,
						a.Name,
						valueOr(a.Status),
						valueOr(a.TypeName),
						valueOr(a.PriorityName),
					})
				}
			}

			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing assigned to you.")
				return nil
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "PROJECT", "NAME", "STATUS", "TYPE", "PRIORITY"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only this kind: requirement, task or incident")
	cmd.Flags().StringVar(&filterFlag, "filter", "", "Only artifacts whose id, name, project, status, type or priority contains this text")

	return cmd
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List your projects and what your role can create in them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			creds, err := s.requireCredentials()
			if err != nil {
				return err
			}

			projects, err := s.service.Client().ListProjects(cmd.Context(), creds)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				return spira.ErrNoProjects
			}

			rows := make([][]string, len(projects))
			for i, p := range projects {
				creatable := "-"
				if p.Role != nil {
					if kinds := p.Role.Capabilities(); len(kinds) > 0 {
						names := make([]string, len(kinds))
						for j, k := range kinds {
							names[j] = string(k)
						}
						creatable = strings.Join(names, ", ")
					}
				}
				rows[i] = []string{"PR:" + strconv.Itoa(p.ID), p.Name, creatable}
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "CAN CREATE"}, rows)
			return nil
		},
	}
}

func newFormCmd() *cobra.Command {
	var projectID int
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Show the types, priorities and owners a new artifact can have",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(kindFlag)
			if err != nil {
				return err
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			creds, err := s.requireCredentials()
			if err != nil {
				return err
			}

			data, err := s.service.GetCreationFormData(cmd.Context(), creds, projectID, kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Types:")
			if len(data.Types) == 0 {
				fmt.Fprintf(out, "  (none: %ss cannot be created in this project)\n", strings.ToLower(string(kind)))
			}
			for _, t := range data.Types {
				fmt.Fprintf(out, "  %6d  %s\n", t.ID, t.Name)
			}

			fmt.Fprintln(out, "Priorities:")
			for _, p := range data.Priorities {
				fmt.Fprintf(out, "  %6d  %s\n", p.ID, p.Name)
			}

			fmt.Fprintln(out, "Owners:")
			for _, u := range data.Users {
				label := u.FullName
				if u.Username != "" {
					label = fmt.Sprintf("%s (%s)", u.FullName, u.Username)
				}
				fmt.Fprintf(out, "  %6d  %s\n", u.ID, label)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&projectID, "project", 0, "Project id")
	cmd.Flags().StringVar(&kindFlag, "kind", "", "requirement, task or incident")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func newCreateCmd() *cobra.Command {
	var (
		kindFlag string
		fields   spira.CreateFields
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a requirement, task or incident",
		Long: `Create a requirement, task or incident.

Use 'spira form' to look up type, priority and owner ids. An owner or
priority of -1 means none.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(kindFlag)
			if err != nil {
				return err
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			creds, err := s.requireCredentials()
			if err != nil {
				return err
			}

			id, err := s.service.CreateArtifact(cmd.Context(), creds, kind, fields)
			if err != nil {
				return err
			}

			created := domain.Artifact{ProjectID: fields.ProjectID, ID: id, Kind: kind}
			s.logger.Info().Str("artifact", created.DisplayID()).Int("project_id", fields.ProjectID).Msg("Artifact created")
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n%s\n", created.DisplayID(), spira.ArtifactURL(creds.BaseURL, created))
			return nil
		},
	}

	cmd.Flags().IntVar(&fields.ProjectID, "project", 0, "Project id")
	cmd.Flags().StringVar(&kindFlag, "kind", "", "requirement, task or incident")
	cmd.Flags().StringVar(&fields.Name, "name", "", "Name")
	cmd.Flags().IntVar(&fields.TypeID, "type", 0, "Type id")
	cmd.Flags().StringVar(&fields.Description, "description", "", "Description")
	cmd.Flags().IntVar(&fields.OwnerID, "owner", domain.NoneID, "Owner user id")
	cmd.Flags().IntVar(&fields.PriorityID, "priority", domain.NoneID, "Priority id")
	for _, name := range []string{"project", "kind", "name", "type"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newOpenCmd() *cobra.Command {
	var (
		projectID, id int
		kindFlag      string
	)

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open an artifact in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(kindFlag)
			if err != nil {
				return err
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			creds, err := s.requireCredentials()
			if err != nil {
				return err
			}

			a := domain.Artifact{ProjectID: projectID, ID: id, Kind: kind}
			link := spira.ArtifactURL(creds.BaseURL, a)
			fmt.Fprintln(cmd.OutOrStdout(), link)
			if err := spira.OpenURL(link); err != nil {
				return fmt.Errorf("failed to open browser: %w", err)
			}
			s.service.RecordLastOpen(a.Key())
			return nil
		},
	}

	cmd.Flags().IntVar(&projectID, "project", 0, "Project id")
	cmd.Flags().StringVar(&kindFlag, "kind", "", "requirement, task or incident")
	cmd.Flags().IntVar(&id, "id", 0, "Artifact id")
	for _, name := range []string{"project", "kind", "id"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newMyPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mypage",
		Short: "Open your SpiraTeam My Page in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			creds, err := s.requireCredentials()
			if err != nil {
				return err
			}

			link, err := s.service.Client().MyPageURL(cmd.Context(), creds)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			if err := spira.OpenURL(link); err != nil {
				return fmt.Errorf("failed to open browser: %w", err)
			}
			return nil
		},
	}
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(w, t.Render())
}

func valueOr(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
