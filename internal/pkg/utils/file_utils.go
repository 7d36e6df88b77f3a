package utils

import (
	"os"

	"orbid_backend/internal/entity"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadTokensFromJSON reads the tracked token list from a JSON file.
func LoadTokensFromJSON(filePath string) ([]entity.TokenInfo, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var tokens []entity.TokenInfo
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// LoadKnownPoolsFromJSON reads the static swap pool table from a JSON file.
func LoadKnownPoolsFromJSON(filePath string) ([]entity.KnownPool, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var pools []entity.KnownPool
	if err := json.Unmarshal(data, &pools); err != nil {
		return nil, err
	}
	return pools, nil
}
