package gmailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jakechorley/tamilschool-volunteers/internal/config"
	"github.com/jakechorley/tamilschool-volunteers/pkg/utils"
)

// Client wraps the Gmail API client
type Client struct {
	service      *gmail.Service
	sender       string
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a Gmail client, running the OAuth flow if no stored token is usable.
// sender is placed in the From header; an empty sender lets Gmail use the account address.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, env, sender string) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig, env)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	return newClientWithToken(ctx, oauthConfig, token, sender)
}

func newClientWithToken(ctx context.Context, oauthConfig *oauth2.Config, token *oauth2.Token, sender string) (*Client, error) {
	httpClient := oauthConfig.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service: service,
		sender:  sender,
	}, nil
}
