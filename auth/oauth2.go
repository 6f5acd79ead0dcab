// Copyright 2023 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
)

// Oauth2Authenticator obtains a bearer token with the resource owner password
// credentials grant and refreshes it once it has expired. The password can be
// sourced the same ways as for BasicAuthenticator.
type Oauth2Authenticator struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Scopes       []string

	Token *oauth2.Token
}

func (o *Oauth2Authenticator) Configure(cfg map[string]interface{}) error {
	decoded := struct {
		TokenURL     string                 `mapstructure:"token_url"`
		ClientID     string                 `mapstructure:"client_id"`
		ClientSecret string                 `mapstructure:"client_secret"`
		Username     string                 `mapstructure:"username"`
		Password     string                 `mapstructure:"password"`
		PasswordEnv  string                 `mapstructure:"password_env"`
		PasswordFile string                 `mapstructure:"password_file"`
		Scopes       []string               `mapstructure:"scopes"`
		Rest         map[string]interface{} `mapstructure:",remain"`
	}{}

	if err := decodeConfig(cfg, &decoded, &decoded.Rest); err != nil {
		return err
	}

	password, err := resolveSecret(decoded.Password, decoded.PasswordEnv, decoded.PasswordFile)
	if err != nil {
		return err
	}

	o.ClientID = decoded.ClientID
	o.ClientSecret = decoded.ClientSecret
	o.TokenURL = decoded.TokenURL
	o.Username = decoded.Username
	o.Password = password
	o.Scopes = decoded.Scopes

	if len(o.Scopes) == 0 {
		o.Scopes = []string{"openid"}
	}

	return o.validate()
}

func (o *Oauth2Authenticator) EncodeHeader() (string, error) {
	if !o.Token.Valid() {
		tok, err := o.obtainToken()
		if err != nil {
			return "", fmt.Errorf("obtaining access token: %w", err)
		}
		o.Token = tok
	}

	return o.Token.Type() + " " + o.Token.AccessToken, nil
}

func (o *Oauth2Authenticator) obtainToken() (*oauth2.Token, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		Scopes:       o.Scopes,
		Endpoint: oauth2.Endpoint{
			TokenURL: o.TokenURL,
		},
	}

	return conf.PasswordCredentialsToken(context.Background(), o.Username, o.Password)
}

func (o *Oauth2Authenticator) validate() error {
	if o.ClientID == "" {
		return errors.New("missing client_id")
	}

	if o.ClientSecret == "" {
		return errors.New("missing client_secret")
	}

	if o.TokenURL == "" {
		return errors.New("missing token_url")
	}

	if u, err := url.Parse(o.TokenURL); err != nil {
		return fmt.Errorf("invalid token_url: %w", err)
	} else if !u.IsAbs() {
		return fmt.Errorf("invalid token_url: %q is not absolute", o.TokenURL)
	}

	if o.Username == "" {
		return errors.New("missing username")
	}

	if o.Password == "" {
		return errors.New("missing password")
	}

	return nil
}
