package convostore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/models"
)

const (
	flowKeyPrefix = "aide:flow:"
	prefKeyPrefix = "aide:pref:"
)

// Store persists conversation flows and assistant preferences as whole JSON
// documents in a key/value backend. Flows are read-modify-written per turn;
// concurrent writers to the same channel are last-write-wins.
type Store struct {
	kv     KV
	logger *zap.Logger
}

func New(kv KV, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// GetFlow returns the channel's active flow, or nil when none exists.
func (s *Store) GetFlow(channelID string) (*models.ConversationFlow, error) {
	raw, ok, err := s.kv.Get(flowKeyPrefix + channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var flow models.ConversationFlow
	if err := json.Unmarshal([]byte(raw), &flow); err != nil {
		return nil, fmt.Errorf("failed to decode flow: %w", err)
	}
	return &flow, nil
}

func (s *Store) SaveFlow(flow *models.ConversationFlow) error {
	raw, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to encode flow: %w", err)
	}
	if err := s.kv.Set(flowKeyPrefix+flow.ChannelID, string(raw), 0); err != nil {
		return fmt.Errorf("failed to write flow: %w", err)
	}
	return nil
}

func (s *Store) DeleteFlow(channelID string) error {
	if err := s.kv.Del(flowKeyPrefix + channelID); err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	return nil
}

// ActiveChannels lists the channel ids that currently have a flow.
func (s *Store) ActiveChannels() ([]string, error) {
	keys, err := s.kv.Keys(flowKeyPrefix + "*")
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	channels := make([]string, 0, len(keys))
	for _, k := range keys {
		channels = append(channels, strings.TrimPrefix(k, flowKeyPrefix))
	}
	return channels, nil
}

// AppendTurn appends a message to the channel's history, creating the flow
// on first interaction and trimming to the history cap. The flow document
// is rewritten as a whole.
func (s *Store) AppendTurn(channelID string, channelType models.ChannelType, msg models.UserMessage) error {
	flow, err := s.GetFlow(channelID)
	if err != nil {
		return err
	}
	if flow == nil {
		now := time.Now()
		flow = &models.ConversationFlow{
			ChannelID:   channelID,
			ChannelType: channelType,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	flow.Append(msg)
	return s.SaveFlow(flow)
}

// GetPreference returns the user's preference document, or nil when the
// user never customized anything.
func (s *Store) GetPreference(userID int64) (*models.AssistantPreference, error) {
	raw, ok, err := s.kv.Get(prefKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to read preference: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var pref models.AssistantPreference
	if err := json.Unmarshal([]byte(raw), &pref); err != nil {
		return nil, fmt.Errorf("failed to decode preference: %w", err)
	}
	return &pref, nil
}

func (s *Store) SavePreference(pref *models.AssistantPreference) error {
	pref.UpdatedAt = time.Now()
	raw, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("failed to encode preference: %w", err)
	}
	if err := s.kv.Set(prefKey(pref.UserID), string(raw), 0); err != nil {
		return fmt.Errorf("failed to write preference: %w", err)
	}
	return nil
}

func prefKey(userID int64) string {
	return prefKeyPrefix + strconv.FormatInt(userID, 10)
}
