package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dentmark "github.com/Gibihakkasy/dental-clinic-marketing"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "dentmark",
		Short: "Instagram content planning from dental news feeds",
		Long: "dentmark aggregates dental news RSS feeds and generates Instagram-ready\n" +
			"summaries, captions, and image prompts for a dental clinic.",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(topicsCmd())
	rootCmd.AddCommand(initConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func withEngine(fn func(engine *dentmark.Engine) error) error {
	cfg, err := dentmark.LoadConfig(configPath)
	if err != nil {
		return err
	}
	engine, err := dentmark.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()
	return fn(engine)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fetchCmd() *cobra.Command {
	var grouped bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the latest dental news articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine *dentmark.Engine) error {
				if grouped {
					return printJSON(engine.FetchGrouped(cmd.Context()))
				}
				return printJSON(engine.FetchArticles(cmd.Context()))
			})
		},
	}
	cmd.Flags().BoolVarP(&grouped, "grouped", "g", false, "group articles by feed")
	return cmd
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Generate a content plan for every fetched article",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine *dentmark.Engine) error {
				grouped := engine.FetchGrouped(cmd.Context())

				var selections []dentmark.Selection
				for _, group := range grouped {
					for _, article := range group.Articles {
						selections = append(selections, dentmark.Selection{
							FeedURL:     group.FeedURL,
							ArticleLink: article.Link,
						})
					}
				}
				if len(selections) == 0 {
					return fmt.Errorf("no articles fetched, nothing to plan")
				}

				plan, err := engine.GeneratePlan(cmd.Context(), selections)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "plan document: %s\n", plan.File)
				return printJSON(plan.Grouped)
			})
		},
	}
}

func topicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage stored topic generations",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored topics, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine *dentmark.Engine) error {
				topics, err := engine.ListTopics(limit, offset)
				if err != nil {
					return err
				}
				return printJSON(topics)
			})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum topics to list")
	listCmd.Flags().IntVar(&offset, "offset", 0, "listing offset")

	showCmd := &cobra.Command{
		Use:   "show <topic-id>",
		Short: "Show a stored topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine *dentmark.Engine) error {
				topic, err := engine.GetTopic(args[0])
				if err != nil {
					return err
				}
				return printJSON(topic)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <topic-id>",
		Short: "Delete a stored topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine *dentmark.Engine) error {
				existed, err := engine.DeleteTopic(args[0])
				if err != nil {
					return err
				}
				if !existed {
					return fmt.Errorf("topic %s not found", args[0])
				}
				fmt.Fprintln(os.Stderr, "deleted")
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

func initConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			raw, err := dentmark.DefaultConfigYAML()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "config.yaml", "where to write the config")
	return cmd
}
