package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/reaandrew/secsweep/classify"
	"github.com/reaandrew/secsweep/config"
	"github.com/reaandrew/secsweep/reporters"
	"github.com/reaandrew/secsweep/repositories"
	"github.com/reaandrew/secsweep/scanners"
	"github.com/reaandrew/secsweep/tools"
	"github.com/reaandrew/secsweep/utils"
	log "github.com/sirupsen/logrus"
)

// LambdaRequest represents the expected JSON structure in the request body
type LambdaRequest struct {
	Targets  []string `json:"targets"`
	Tools    []string `json:"tools"`
	Excludes []string `json:"excludes"`
}

// Handler is the Lambda function handler: it runs a one-shot scan and
// returns the JSON report as the response body.
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var lambdaReq LambdaRequest
	if err := json.Unmarshal([]byte(request.Body), &lambdaReq); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return toAPIGatewayResponse(400, `{"error": "Invalid JSON format."}`), nil
	}

	if len(lambdaReq.Targets) == 0 {
		errMsg := "The 'targets' field is required in the JSON request."
		log.Println(errMsg)
		return toAPIGatewayResponse(400, fmt.Sprintf(`{"error": "%s"}`, errMsg)), nil
	}

	if os.Getenv("SSM_PARAMETER_PREFIX") != "" {
		token, err := getStoredToken(ctx, "git_token")
		if err != nil {
			log.Warnf("Failed to fetch git token from SSM: %v", err)
		} else {
			os.Setenv("GITHUB_TOKEN", token)
			os.Setenv("GITLAB_TOKEN", token)
		}
	}

	jsonReport, err := ScanTargets(ctx, lambdaReq)
	if err != nil {
		log.Printf("Error scanning targets: %v", err)
		errorBody, _ := json.Marshal(map[string]string{"error": err.Error()})
		return toAPIGatewayResponse(500, string(errorBody)), nil
	}

	return toAPIGatewayResponse(200, jsonReport), nil
}

// toAPIGatewayResponse builds an events.APIGatewayProxyResponse
func toAPIGatewayResponse(statusCode int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode:      statusCode,
		Headers:         map[string]string{"Content-Type": "application/json"},
		Body:            body,
		IsBase64Encoded: false,
	}
}

// getStoredToken retrieves a stored token from SSM Parameter Store
func getStoredToken(ctx context.Context, name string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	svc := ssm.NewFromConfig(cfg)

	paramPrefix := os.Getenv("SSM_PARAMETER_PREFIX")
	if paramPrefix == "" {
		return "", fmt.Errorf("SSM_PARAMETER_PREFIX environment variable is not set")
	}
	paramName := fmt.Sprintf("%s%s", paramPrefix, name)

	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	}
	result, err := svc.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve parameter '%s': %w", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter '%s' has no value", paramName)
	}

	return *result.Parameter.Value, nil
}

// ScanTargets performs a one-shot scan and returns the JSON report
func ScanTargets(ctx context.Context, request LambdaRequest) (string, error) {
	registry := tools.NewRegistry()
	selected, err := registry.Resolve(request.Tools)
	if err != nil {
		return "", err
	}

	classifier, err := classify.NewClassifier(request.Excludes)
	if err != nil {
		return "", err
	}

	repository, err := repositories.NewFileBasedFindingRepository()
	if err != nil {
		return "", fmt.Errorf("failed to create finding repository: %w", err)
	}
	defer func() {
		if err := repository.Close(); err != nil {
			log.Warnf("Failed to close finding repository: %v", err)
		}
	}()

	reportFilePath := filepath.Join("/tmp", utils.GenerateRandomFilename("json"))
	defer os.Remove(reportFilePath)

	resolver := &scanners.TargetResolver{CloneBaseDir: "/tmp/secsweep"}
	defer resolver.Cleanup()

	resolved, err := resolver.Resolve(ctx, request.Targets)
	if err != nil {
		return "", err
	}

	defaults := config.Defaults()
	runner := scanners.ScanRunner{
		Invoker:          tools.Invoker{Timeout: defaults.Timeout},
		Classifier:       classifier,
		Repository:       repository,
		Reporter:         reporters.JsonReporter{OutputPath: reportFilePath},
		ProgressReporter: utils.NoopProgressReporter{},
		Workers:          defaults.Workers,
		WorkDir:          "/tmp",
	}

	run, err := runner.Run(ctx, selected, resolved)
	if err != nil {
		return "", err
	}
	log.Printf("Run %s finished with %d findings", run.ID, run.Summary.Findings)

	reportData, err := os.ReadFile(reportFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to read JSON report: %w", err)
	}
	return string(reportData), nil
}
