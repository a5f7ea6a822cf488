package main

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	ultraocr "github.com/nuveo/ultraocr-go"
)

var (
	serviceFlag       string
	batchFlag         bool
	fileFlag          string
	facematchFileFlag string
	extraFileFlag     string
	base64Flag        bool
	singleStepFlag    bool
	metadataFileFlag  string
	paramFlags        []string
	waitFlag          bool
	waitJobsFlag      bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a document job or batch",
	Long: `Submit a document for processing, as a single job or as a batch.

With --facematch or --extra-document the matching file flag must be given;
the API only issues upload slots for features requested at submission time.
With --base64 file contents are re-encoded and sent through the base64 flow;
--single-step sends everything inline in one request (6MB body limit).`,
	Run: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&serviceFlag, "service", "s", "", "Service to process the document with (e.g. cnh, rg, idtypification)")
	sendCmd.Flags().BoolVar(&batchFlag, "batch", false, "Submit as a batch instead of a single job")
	sendCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Document file to submit")
	sendCmd.Flags().StringVar(&facematchFileFlag, "facematch-file", "", "Selfie file for facematch (implies facematch=true)")
	sendCmd.Flags().StringVar(&extraFileFlag, "extra-file", "", "Extra document file (implies extra-document=true)")
	sendCmd.Flags().BoolVar(&base64Flag, "base64", false, "Send file contents base64-encoded")
	sendCmd.Flags().BoolVar(&singleStepFlag, "single-step", false, "Send the job inline in a single request (jobs only)")
	sendCmd.Flags().StringVarP(&metadataFileFlag, "metadata", "m", "", "JSON file with submission metadata")
	sendCmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "Extra query parameter as key=value (repeatable)")
	sendCmd.Flags().BoolVarP(&waitFlag, "wait", "w", false, "Wait for processing and print the final record")
	sendCmd.Flags().BoolVar(&waitJobsFlag, "wait-jobs", true, "With --batch --wait, also wait for every job in the batch")
	sendCmd.MarkFlagRequired("service")
	sendCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) {
	client := newClient()
	ctx := cmdContext()

	params := parseParams(paramFlags)
	if facematchFileFlag != "" {
		params["facematch"] = "true"
	}
	if extraFileFlag != "" {
		params["extra-document"] = "true"
	}

	if batchFlag {
		runSendBatch(client, params)
		return
	}

	metadata := readJobMetadata(metadataFileFlag)

	var created ultraocr.CreatedResponse
	var err error
	switch {
	case singleStepFlag:
		created, err = client.SendJobSingleStep(ctx, serviceFlag,
			encodeFile(fileFlag), encodeOptionalFile(facematchFileFlag), encodeOptionalFile(extraFileFlag),
			metadata, params)
	case base64Flag:
		created, err = client.SendJobBase64(ctx, serviceFlag,
			[]byte(encodeFile(fileFlag)), []byte(encodeOptionalFile(facematchFileFlag)), []byte(encodeOptionalFile(extraFileFlag)),
			metadata, params)
	default:
		created, err = client.SendJob(ctx, serviceFlag, fileFlag, facematchFileFlag, extraFileFlag, metadata, params)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Job submission failed")
	}

	if !waitFlag {
		if err := printJSON(created); err != nil {
			log.Fatal().Err(err).Msg("Failed to print response")
		}
		return
	}

	result, err := client.WaitForJob(ctx, created.ID, created.ID)
	if err != nil {
		log.Fatal().Err(err).Str("jobId", created.ID).Msg("Wait failed")
	}
	if err := printJSON(result); err != nil {
		log.Fatal().Err(err).Msg("Failed to print result")
	}
}

func runSendBatch(client *ultraocr.Client, params map[string]string) {
	ctx := cmdContext()
	metadata := readBatchMetadata(metadataFileFlag)

	var created ultraocr.CreatedResponse
	var err error
	if base64Flag {
		created, err = client.SendBatchBase64(ctx, serviceFlag, []byte(encodeFile(fileFlag)), metadata, params)
	} else {
		created, err = client.SendBatch(ctx, serviceFlag, fileFlag, metadata, params)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Batch submission failed")
	}

	if !waitFlag {
		if err := printJSON(created); err != nil {
			log.Fatal().Err(err).Msg("Failed to print response")
		}
		return
	}

	status, err := client.WaitForBatch(ctx, created.ID, waitJobsFlag)
	if err != nil {
		log.Fatal().Err(err).Str("batchId", created.ID).Msg("Wait failed")
	}
	if err := printJSON(status); err != nil {
		log.Fatal().Err(err).Msg("Failed to print status")
	}
}

// parseParams turns repeated key=value flags into query parameters.
func parseParams(pairs []string) map[string]string {
	params := map[string]string{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			log.Fatal().Str("param", pair).Msg("Parameters must be key=value")
		}
		params[key] = value
	}
	return params
}

// readJobMetadata loads job metadata from a JSON file. When none is given, a
// correlation ID is attached as client_data so the submission can be traced
// back from job results.
func readJobMetadata(path string) map[string]any {
	if path == "" {
		return map[string]any{
			"client_data": map[string]any{"correlation_id": uuid.NewString()},
		}
	}
	var metadata map[string]any
	decodeJSONFile(path, &metadata)
	return metadata
}

func readBatchMetadata(path string) []map[string]any {
	if path == "" {
		return nil
	}
	var metadata []map[string]any
	decodeJSONFile(path, &metadata)
	return metadata
}

func decodeJSONFile(path string, out any) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read metadata file")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Metadata file is not valid JSON")
	}
}

func encodeFile(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read file")
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func encodeOptionalFile(path string) string {
	if path == "" {
		return ""
	}
	return encodeFile(path)
}
