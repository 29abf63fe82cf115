package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known repository paths.
const (
	SettingsPath = "config/settings.json"
	TopicsPath   = "config/topics.json"
	HistoryPath  = "data/history.json"
)

// Store reads and writes typed documents through a Client. Each read
// returns the blob sha for the matching write; a missing file yields
// defaults with an empty sha so the first write creates it.
type Store struct {
	client *Client
}

// New wraps a Client.
func New(client *Client) *Store {
	return &Store{client: client}
}

// Client exposes the underlying raw client, for workflow operations.
func (s *Store) Client() *Client {
	return s.client
}

// Settings loads the dashboard settings.
func (s *Store) Settings(ctx context.Context) (Settings, string, error) {
	var settings Settings
	sha, err := s.load(ctx, SettingsPath, &settings)
	if errors.Is(err, ErrNotFound) {
		return DefaultSettings(), "", nil
	}
	if err != nil {
		return Settings{}, "", err
	}
	return settings, sha, nil
}

// SaveSettings writes the settings and returns the new sha.
func (s *Store) SaveSettings(ctx context.Context, settings Settings, sha string) (string, error) {
	return s.save(ctx, SettingsPath, "Update settings", settings, sha)
}

// Topics loads the topic list.
func (s *Store) Topics(ctx context.Context) (TopicsConfig, string, error) {
	var topics TopicsConfig
	sha, err := s.load(ctx, TopicsPath, &topics)
	if errors.Is(err, ErrNotFound) {
		return TopicsConfig{Topics: []Topic{}}, "", nil
	}
	if err != nil {
		return TopicsConfig{}, "", err
	}
	if topics.Topics == nil {
		topics.Topics = []Topic{}
	}
	return topics, sha, nil
}

// SaveTopics writes the topic list and returns the new sha.
func (s *Store) SaveTopics(ctx context.Context, topics TopicsConfig, sha string) (string, error) {
	return s.save(ctx, TopicsPath, "Update topics", topics, sha)
}

// History loads the article history.
func (s *Store) History(ctx context.Context) (History, string, error) {
	var history History
	sha, err := s.load(ctx, HistoryPath, &history)
	if errors.Is(err, ErrNotFound) {
		return DefaultHistory(), "", nil
	}
	if err != nil {
		return History{}, "", err
	}
	if history.Articles == nil {
		history.Articles = []Article{}
	}
	return history, sha, nil
}

// SaveHistory writes the article history and returns the new sha.
func (s *Store) SaveHistory(ctx context.Context, history History, sha string) (string, error) {
	return s.save(ctx, HistoryPath, "Update history", history, sha)
}

func (s *Store) load(ctx context.Context, path string, out any) (string, error) {
	file, err := s.client.GetFile(ctx, path)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(file.Content, out); err != nil {
		return "", fmt.Errorf("store: parse %s: %w", path, err)
	}
	return file.SHA, nil
}

func (s *Store) save(ctx context.Context, path, message string, doc any, sha string) (string, error) {
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("store: encode %s: %w", path, err)
	}
	content = append(content, '\n')
	return s.client.PutFile(ctx, path, message, content, sha)
}
