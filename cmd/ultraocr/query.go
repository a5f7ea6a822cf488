package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	waitBatchIDFlag string
	waitJobIDFlag   string
	downloadFlag    string
	storageFlag     bool
	jobsStartFlag   string
	jobsEndFlag     string
	infoBatchFlag   bool
	noWaitJobsFlag  bool
)

var statusCmd = &cobra.Command{
	Use:   "status <batch-id>",
	Short: "Print the current status of a batch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		status, err := newClient().GetBatchStatus(cmdContext(), args[0])
		if err != nil {
			log.Fatal().Err(err).Str("batchId", args[0]).Msg("Failed to fetch batch status")
		}
		if err := printJSON(status); err != nil {
			log.Fatal().Err(err).Msg("Failed to print status")
		}
	},
}

var resultCmd = &cobra.Command{
	Use:   "result <batch-id> <job-id>",
	Short: "Print the result of a job",
	Long: `Print the status and result of a job. For a job created outside a
batch, repeat the job ID in place of the batch ID.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := newClient().GetJobResult(cmdContext(), args[0], args[1])
		if err != nil {
			log.Fatal().Err(err).Str("jobId", args[1]).Msg("Failed to fetch job result")
		}
		if err := printJSON(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to print result")
		}
	},
}

var batchResultCmd = &cobra.Command{
	Use:   "batch-result <batch-id>",
	Short: "Print or download the aggregated results of a batch",
	Args:  cobra.ExactArgs(1),
	Run:   runBatchResult,
}

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Print extended metadata for a job, or a batch with --batch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		ctx := cmdContext()
		if infoBatchFlag {
			info, err := client.GetBatchInfo(ctx, args[0])
			if err != nil {
				log.Fatal().Err(err).Str("batchId", args[0]).Msg("Failed to fetch batch info")
			}
			if err := printJSON(info); err != nil {
				log.Fatal().Err(err).Msg("Failed to print info")
			}
			return
		}
		info, err := client.GetJobInfo(ctx, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("jobId", args[0]).Msg("Failed to fetch job info")
		}
		if err := printJSON(info); err != nil {
			log.Fatal().Err(err).Msg("Failed to print info")
		}
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs created in a time interval",
	Run: func(cmd *cobra.Command, args []string) {
		jobs, err := newClient().GetJobs(cmdContext(), jobsStartFlag, jobsEndFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list jobs")
		}
		if err := printJSON(jobs); err != nil {
			log.Fatal().Err(err).Msg("Failed to print jobs")
		}
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a job or batch to finish and print the final record",
	Run:   runWait,
}

func init() {
	batchResultCmd.Flags().BoolVar(&storageFlag, "storage", false, "Print a signed download URL instead of inline results")
	batchResultCmd.Flags().StringVar(&downloadFlag, "download", "", "Download the result file to this path (gzip decompressed)")

	infoCmd.Flags().BoolVar(&infoBatchFlag, "batch", false, "Treat the ID as a batch ID")

	jobsCmd.Flags().StringVar(&jobsStartFlag, "start", "", "Interval start (YYYY-MM-DD)")
	jobsCmd.Flags().StringVar(&jobsEndFlag, "end", "", "Interval end (YYYY-MM-DD)")
	jobsCmd.MarkFlagRequired("start")
	jobsCmd.MarkFlagRequired("end")

	waitCmd.Flags().StringVar(&waitBatchIDFlag, "batch", "", "Batch ID to wait for")
	waitCmd.Flags().StringVar(&waitJobIDFlag, "job", "", "Job ID to wait for")
	waitCmd.Flags().BoolVar(&noWaitJobsFlag, "no-wait-jobs", false, "With --batch, return as soon as the batch itself is terminal")

	rootCmd.AddCommand(statusCmd, resultCmd, batchResultCmd, infoCmd, jobsCmd, waitCmd)
}

func runBatchResult(cmd *cobra.Command, args []string) {
	client := newClient()
	ctx := cmdContext()
	batchID := args[0]

	switch {
	case downloadFlag != "":
		out, err := os.Create(downloadFlag)
		if err != nil {
			log.Fatal().Err(err).Str("path", downloadFlag).Msg("Failed to create output file")
		}
		defer out.Close()
		if err := client.DownloadBatchResultFile(ctx, batchID, nil, out); err != nil {
			log.Fatal().Err(err).Str("batchId", batchID).Msg("Download failed")
		}
		log.Info().Str("path", downloadFlag).Msg("Batch result saved")
	case storageFlag:
		storage, err := client.GetBatchResultStorage(ctx, batchID, nil)
		if err != nil {
			log.Fatal().Err(err).Str("batchId", batchID).Msg("Failed to fetch storage URL")
		}
		if err := printJSON(storage); err != nil {
			log.Fatal().Err(err).Msg("Failed to print storage URL")
		}
	default:
		results, err := client.GetBatchResult(ctx, batchID)
		if err != nil {
			log.Fatal().Err(err).Str("batchId", batchID).Msg("Failed to fetch batch results")
		}
		if err := printJSON(results); err != nil {
			log.Fatal().Err(err).Msg("Failed to print results")
		}
	}
}

func runWait(cmd *cobra.Command, args []string) {
	client := newClient()
	ctx := cmdContext()

	switch {
	case waitBatchIDFlag != "" && waitJobIDFlag != "":
		result, err := client.WaitForJob(ctx, waitBatchIDFlag, waitJobIDFlag)
		if err != nil {
			log.Fatal().Err(err).Str("jobId", waitJobIDFlag).Msg("Wait failed")
		}
		if err := printJSON(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to print result")
		}
	case waitBatchIDFlag != "":
		status, err := client.WaitForBatch(ctx, waitBatchIDFlag, !noWaitJobsFlag)
		if err != nil {
			log.Fatal().Err(err).Str("batchId", waitBatchIDFlag).Msg("Wait failed")
		}
		if err := printJSON(status); err != nil {
			log.Fatal().Err(err).Msg("Failed to print status")
		}
	case waitJobIDFlag != "":
		result, err := client.WaitForJob(ctx, waitJobIDFlag, waitJobIDFlag)
		if err != nil {
			log.Fatal().Err(err).Str("jobId", waitJobIDFlag).Msg("Wait failed")
		}
		if err := printJSON(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to print result")
		}
	default:
		log.Fatal().Msg("Provide --job, --batch, or both (batch-scoped job)")
	}
}
