package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/bilisub/internal/pipeline"
	"github.com/mgpai22/bilisub/internal/project"
	"github.com/mgpai22/bilisub/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish [project_dir]",
	Short: "Upload a finished project to S3-compatible storage",
	Long: `Upload the final videos, subtitle and danmaku files and the summary of a
project to the bucket configured in [publish].

Credentials are read from the environment variables named by
publish.access_key_env and publish.secret_key_env (a .env file works too).`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().Bool("dry-run", false, "List the object keys without uploading")
}

func runPublish(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	p, err := project.Open(args[0])
	if err != nil {
		return err
	}
	pub, err := publish.New(cfg.Publish, logger)
	if err != nil {
		return err
	}

	if dryRun {
		objects, err := pub.Plan(p)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(objects))
		for _, o := range objects {
			rows = append(rows, []string{o.Key, o.ContentType})
		}
		fmt.Println(renderTable([]string{"Object", "Content type"}, rows, nil))
		return nil
	}

	if err := p.Lock(); err != nil {
		return err
	}
	defer func() { _ = p.Unlock() }()

	keys, err := pub.Upload(cmd.Context(), p)
	if err != nil {
		return err
	}
	if err := p.MarkStep(pipeline.StepPublish); err != nil {
		return err
	}
	fmt.Printf("Published %d objects to %s\n", len(keys), cfg.Publish.Bucket)
	return nil
}
