package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/bassamadnan/tmail/body"
	"github.com/bassamadnan/tmail/config"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

type Client struct {
	srv      *gmailapi.Service
	filters  *config.Manager
	settings config.Settings
	resolver body.Resolver
	log      *log.Logger
}

// NewClient authorizes against the Gmail API with the installed-app flow.
// A cached token is read from settings.TokenFile; without one the user is
// asked to paste an authorization code, and the new token is cached.
func NewClient(ctx context.Context, settings config.Settings, filters *config.Manager, logger *log.Logger) (*Client, error) {
	b, err := os.ReadFile(settings.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(b, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	httpClient, err := getOAuthClient(ctx, oauthConfig, settings.TokenFile, os.Stdin, os.Stdout)
	if err != nil {
		return nil, err
	}
	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return NewClientWithService(srv, settings, filters, logger), nil
}

// NewClientWithService wraps an already configured service. filters and
// logger may be nil.
func NewClientWithService(srv *gmailapi.Service, settings config.Settings, filters *config.Manager, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if settings.FetchConcurrency < 1 {
		settings.FetchConcurrency = 1
	}
	return &Client{
		srv:      srv,
		filters:  filters,
		settings: settings,
		resolver: body.Resolver{ReduceAggregateHTML: settings.ReduceAggregateHTML},
		log:      logger.WithPrefix("gmail"),
	}
}

func getOAuthClient(ctx context.Context, config *oauth2.Config, tokenFile string, in io.Reader, out io.Writer) (*http.Client, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading cached token %s: %w", tokenFile, err)
		}
		tok, err = getTokenFromWeb(ctx, config, in, out)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Saved credential file to: %s\n", tokenFile)
	}
	return config.Client(ctx, tok), nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)
	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to save oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
