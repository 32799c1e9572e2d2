package repo

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"PerfumeBot/model"
)

const (
	surveyPath  = "survey"
	intentsPath = "purchaseIntents"
)

// FirebaseConnector struct to hold Firebase client and database reference
type FirebaseConnector struct {
	app    *firebase.App
	client *db.Client
}

// NewFirebaseConnector creates a new Firebase connector
func NewFirebaseConnector(ctx context.Context, serviceAccountKeyPath string, databaseURL string) (*FirebaseConnector, error) {
	opt := option.WithCredentialsFile(serviceAccountKeyPath)

	config := &firebase.Config{
		DatabaseURL: databaseURL,
	}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}

	return &FirebaseConnector{
		app:    app,
		client: client,
	}, nil
}

// LoadSurvey reads the survey stored under the "survey" reference.
func (fc *FirebaseConnector) LoadSurvey(ctx context.Context) (*model.Survey, error) {
	var survey model.Survey
	if err := fc.client.NewRef(surveyPath).Get(ctx, &survey); err != nil {
		return nil, fmt.Errorf("error reading survey: %w", err)
	}
	return &survey, nil
}

// RecordPurchaseIntent appends an intent to the purchase intent log.
func (fc *FirebaseConnector) RecordPurchaseIntent(ctx context.Context, intent model.PurchaseIntent) error {
	if _, err := fc.client.NewRef(intentsPath).Push(ctx, intent); err != nil {
		return fmt.Errorf("error recording purchase intent: %w", err)
	}
	return nil
}
