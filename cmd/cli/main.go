package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/devprofile-api/internal/config"
	"github.com/kurihiro0119/devprofile-api/internal/domain"
	"github.com/kurihiro0119/devprofile-api/pkg/client"
)

var (
	outputJSON      bool
	endpoint        string
	token           string
	repoType        string
	repoSort        string
	perPage         int
	fullContent     bool
	maxWait         time.Duration
	includeRetweets bool
)

var rootCmd = &cobra.Command{
	Use:   "devprofile",
	Short: "Developer profile aggregation tool",
	Long: `A CLI client for the devprofile API.

It lists GitHub repositories, produces text digests of repositories and
fetches LinkedIn and microblog data through the configured scraping agents.`,
	SilenceUsage: true,
}

var reposCmd = &cobra.Command{
	Use:   "repos [username|profile-url]",
	Short: "List repositories of a GitHub user",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepos,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [owner/repo|url]",
	Short: "Show the digest of a repository",
	Long:  `Ingest a repository and print its summary, or its full content with --full.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var batchCmd = &cobra.Command{
	Use:   "batch [owner/repo|url]...",
	Short: "Ingest several repositories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

var profileCmd = &cobra.Command{
	Use:   "profile [name|url]",
	Short: "Fetch a LinkedIn profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

var postsCmd = &cobra.Command{
	Use:   "posts [name|url]",
	Short: "Fetch LinkedIn posts",
	Args:  cobra.ExactArgs(1),
	RunE:  runPosts,
}

var tweetsCmd = &cobra.Command{
	Use:   "tweets [handle|url]",
	Short: "Fetch microblog posts",
	Long:  `Fetch microblog posts. Reshares are filtered out unless --include-retweets is set.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTweets,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check API health",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "API endpoint (default from API_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "GitHub token forwarded to the API")

	reposCmd.Flags().StringVar(&repoType, "type", "all", "Repository type (all, owner, member)")
	reposCmd.Flags().StringVar(&repoSort, "sort", "updated", "Sort order (created, updated, pushed, full_name)")
	reposCmd.Flags().IntVar(&perPage, "per-page", domain.MaxPerPage, "Page size used while listing")

	ingestCmd.Flags().BoolVar(&fullContent, "full", false, "Include the full file content")
	batchCmd.Flags().BoolVar(&fullContent, "full", false, "Include the full file content")

	for _, cmd := range []*cobra.Command{profileCmd, postsCmd, tweetsCmd} {
		cmd.Flags().DurationVar(&maxWait, "max-wait", 60*time.Second, "Maximum time to wait for the agent")
	}
	tweetsCmd.Flags().BoolVar(&includeRetweets, "include-retweets", false, "Keep reshared posts")

	rootCmd.AddCommand(reposCmd, ingestCmd, batchCmd, profileCmd, postsCmd, tweetsCmd, healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() (*client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if endpoint == "" {
		endpoint = cfg.APIEndpoint
	}
	return client.NewClient(endpoint, token), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func runRepos(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	opts := domain.ListOptions{Type: repoType, Sort: repoSort, PerPage: perPage}
	repos, err := c.ListRepositories(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	if outputJSON {
		return printJSON(repos)
	}

	fmt.Printf("\nRepositories: %s (%d)\n\n", args[0], len(repos))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Repository", "Stars", "Language", "Fork", "Updated"})
	for _, r := range repos {
		table.Append([]string{
			r.FullName,
			strconv.Itoa(r.Stars),
			deref(r.Language),
			strconv.FormatBool(r.Fork),
			r.UpdatedAt,
		})
	}
	table.Render()

	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	result, err := c.Ingest(cmd.Context(), args[0], fullContent)
	if err != nil {
		return fmt.Errorf("failed to ingest repository: %w", err)
	}

	if outputJSON {
		return printJSON(result)
	}

	if result.Summary != nil {
		fmt.Println(*result.Summary)
		fmt.Println()
	}
	if result.Tree != nil {
		fmt.Println(*result.Tree)
		fmt.Println()
	}
	if result.Content != nil {
		fmt.Println(*result.Content)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	batch, err := c.IngestBatch(cmd.Context(), args, fullContent)
	if err != nil {
		return fmt.Errorf("failed to ingest repositories: %w", err)
	}

	if outputJSON {
		return printJSON(batch)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Repository", "Success", "Error"})
	for _, r := range batch.Results {
		table.Append([]string{r.Repository, strconv.FormatBool(r.Success), deref(r.Error)})
	}
	table.Render()

	fmt.Printf("\nRequested: %d  Successful: %d  Failed: %d\n", batch.TotalRequested, batch.Successful, batch.Failed)
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	return runScrape(cmd.Context(), func(ctx context.Context, c *client.Client) (*client.ScrapeResult, error) {
		return c.LinkedInProfile(ctx, args[0], maxWait)
	})
}

func runPosts(cmd *cobra.Command, args []string) error {
	return runScrape(cmd.Context(), func(ctx context.Context, c *client.Client) (*client.ScrapeResult, error) {
		return c.LinkedInPosts(ctx, args[0], maxWait)
	})
}

func runTweets(cmd *cobra.Command, args []string) error {
	return runScrape(cmd.Context(), func(ctx context.Context, c *client.Client) (*client.ScrapeResult, error) {
		return c.TwitterPosts(ctx, args[0], maxWait, includeRetweets)
	})
}

func runScrape(ctx context.Context, fetch func(context.Context, *client.Client) (*client.ScrapeResult, error)) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	result, err := fetch(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to fetch: %w", err)
	}

	if outputJSON {
		return printJSON(result)
	}

	fmt.Printf("Run: %s\n", result.RunID)
	if result.Stats != nil {
		fmt.Printf("Reshares filtered: %d of %d (kept %d)\n",
			result.Stats.RetweetsFiltered, result.Stats.TotalFetched, result.Stats.OriginalCount)
	}
	switch {
	case result.Profile != nil:
		return printJSON(result.Profile)
	case result.Tweets != nil:
		return printJSON(result.Tweets)
	default:
		return printJSON(result.Posts)
	}
}

func runHealth(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	health, err := c.HealthCheck(cmd.Context())
	if err != nil {
		return fmt.Errorf("API is unhealthy: %w", err)
	}

	if outputJSON {
		return printJSON(health)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Status", health.Status})
	table.Append([]string{"Service", health.Service})
	if health.GitHubQuota.Known {
		table.Append([]string{"GitHub Quota", fmt.Sprintf("%d/%d", health.GitHubQuota.Remaining, health.GitHubQuota.Limit)})
		table.Append([]string{"Quota Reset", health.GitHubQuota.Reset.Format(time.RFC3339)})
	} else {
		table.Append([]string{"GitHub Quota", "unknown"})
	}
	table.Render()

	return nil
}
