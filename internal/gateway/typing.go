package gateway

import (
	"context"
	"fmt"
	"sync"

	"ex-revolt/pkg/revolt"
)

// TypingSession is an open typing indicator in one channel.
type TypingSession struct {
	conn    *Conn
	channel revolt.ChannelID
	once    sync.Once
	err     error
}

// StartTyping announces typing in channel until the returned session ends.
func (c *Conn) StartTyping(ctx context.Context, channel revolt.ChannelID) (*TypingSession, error) {
	if err := c.Send(ctx, revolt.BeginTyping{Channel: channel}); err != nil {
		return nil, fmt.Errorf("start typing in %s: %w", channel, err)
	}

	return &TypingSession{conn: c, channel: channel}, nil
}

// Channel returns the channel the session types in.
func (s *TypingSession) Channel() revolt.ChannelID {
	return s.channel
}

// Stop sends EndTyping once; later calls return the first result.
func (s *TypingSession) Stop(ctx context.Context) error {
	s.once.Do(func() {
		if err := s.conn.Send(ctx, revolt.EndTyping{Channel: s.channel}); err != nil {
			s.err = fmt.Errorf("stop typing in %s: %w", s.channel, err)
		}
	})

	return s.err
}
