package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedConfig 额外的 RSS/Atom 源，名称同时用于任务名与输出文件名
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type feedsFile struct {
	Feeds []FeedConfig `yaml:"feeds"`
}

var feedNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// LoadFeeds 读取 FEEDS_FILE；path 为空时返回 nil
func LoadFeeds(path string) ([]FeedConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read feeds file: %w", err)
	}
	return parseFeeds(data)
}

func parseFeeds(data []byte) ([]FeedConfig, error) {
	var f feedsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse feeds file: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Feeds))
	out := make([]FeedConfig, 0, len(f.Feeds))
	for i, fc := range f.Feeds {
		fc.Name = strings.TrimSpace(fc.Name)
		fc.URL = strings.TrimSpace(fc.URL)
		if !feedNamePattern.MatchString(fc.Name) {
			return nil, fmt.Errorf("config: feed #%d: invalid name %q", i, fc.Name)
		}
		if fc.URL == "" {
			return nil, fmt.Errorf("config: feed %s: %w", fc.Name, errors.New("url is required"))
		}
		if _, ok := seen[fc.Name]; ok {
			return nil, fmt.Errorf("config: feed %s: duplicate name", fc.Name)
		}
		seen[fc.Name] = struct{}{}
		out = append(out, fc)
	}
	return out, nil
}
