// Copyright 2026 The drivefuse Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// driveScope is the single OAuth scope drivefuse ever requests: full Drive
// access, the same scope the reference rclone Drive backend defaults to.
const driveScope = drive.DriveScope

// loadOAuthConfig builds the oauth2.Config for the "login" flow from a
// client-secret JSON file (the format Google Cloud console downloads),
// the same file google.ConfigFromJSON expects.
func loadOAuthConfig(clientSecretPath string, redirectURL string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("auth: reading client secret file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, driveScope)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing client secret file: %w", err)
	}
	cfg.RedirectURL = redirectURL
	return cfg, nil
}

// AuthorizeWithCode runs the out-of-band flow: print the consent URL, ask
// the user to paste back the authorization code. Selected by the
// authorize_using_code config option, for headless hosts where a local
// redirect listener can't be reached by the browser.
func AuthorizeWithCode(ctx context.Context, clientSecretPath string) (*oauth2.Token, error) {
	cfg, err := loadOAuthConfig(clientSecretPath, "urn:ietf:wg:oauth:2.0:oob")
	if err != nil {
		return nil, err
	}

	fmt.Printf("Go to the following link in your browser, then type the authorization code:\n\n%s\n\n", cfg.AuthCodeURL("state", oauth2.AccessTypeOffline))
	fmt.Print("Authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("auth: reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging authorization code: %w", err)
	}
	return tok, nil
}

// HTTPClient builds an http.Client that authenticates as the given session,
// refreshing its token via clientSecretPath as needed. The Drive Facade
// wraps a drive/v3 service built from this client.
func HTTPClient(ctx context.Context, session, clientSecretPath string) (*http.Client, error) {
	tok, err := LoadToken(session)
	if err != nil {
		return nil, err
	}
	cfg, err := loadOAuthConfig(clientSecretPath, "")
	if err != nil {
		return nil, err
	}
	return cfg.Client(ctx, tok), nil
}

// AuthorizeWithLocalRedirect runs the default flow: spin up a loopback HTTP
// server, print the consent URL, and capture the redirect carrying the
// authorization code. Mirrors the "local webserver" flow most OAuth2
// command-line tools (including the teacher's own credential helpers) use
// in preference to the out-of-band flow Google has deprecated for new
// OAuth clients.
func AuthorizeWithLocalRedirect(ctx context.Context, clientSecretPath string) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("auth: opening local redirect listener: %w", err)
	}
	defer listener.Close()

	redirectURL := fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)
	cfg, err := loadOAuthConfig(clientSecretPath, redirectURL)
	if err != nil {
		return nil, err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				errCh <- fmt.Errorf("auth: redirect carried no authorization code")
				http.Error(w, "missing authorization code", http.StatusBadRequest)
				return
			}
			fmt.Fprintln(w, "Authorization complete, you may close this tab.")
			codeCh <- code
		}),
	}
	go srv.Serve(listener)
	defer srv.Close()

	fmt.Printf("Go to the following link in your browser to authorize drivefuse:\n\n%s\n\n", cfg.AuthCodeURL("state", oauth2.AccessTypeOffline))

	var code string
	select {
	case code = <-codeCh:
	case err = <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging authorization code: %w", err)
	}
	return tok, nil
}
