package mail

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"
)

const dialTimeout = 30 * time.Second

// IMAPConfig carries the inbox connection settings.
type IMAPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	TLSSkipVerify bool
}

// IMAPSource polls an IMAP inbox. Each Fetch opens a fresh session, so a
// broken connection never outlives one polling cycle.
type IMAPSource struct {
	config IMAPConfig
	logger *zap.Logger
}

func NewIMAPSource(config IMAPConfig, log *zap.Logger) *IMAPSource {
	if config.Port == 0 {
		config.Port = 993
	}
	return &IMAPSource{config: config, logger: log}
}

// Fetch returns all INBOX messages received since the given time and marks
// them seen. Marking happens after a successful fetch of the batch, so a
// session that dies mid-cycle leaves the messages unread for the next poll.
func (s *IMAPSource) Fetch(since time.Time) ([]Message, error) {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		InsecureSkipVerify: s.config.TLSSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("dial imap server %s: %w", addr, err)
	}

	client := imapclient.New(conn, nil)
	defer client.Close()

	if err := client.Login(s.config.Username, s.config.Password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	defer func() {
		if err := client.Logout().Wait(); err != nil {
			s.logger.Debug("imap logout failed", zap.Error(err))
		}
	}()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("select inbox: %w", err)
	}

	searchData, err := client.Search(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search inbox since %s: %w", since.Format(time.DateOnly), err)
	}

	seqNums := searchData.AllSeqNums()
	if len(seqNums) == 0 {
		return nil, nil
	}

	seqSet := imap.SeqSetNum(seqNums...)
	bodySection := &imap.FetchItemBodySection{}
	fetched, err := client.Fetch(seqSet, &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	messages := make([]Message, 0, len(fetched))
	for _, buf := range fetched {
		msg := Message{Text: ExtractText(buf.FindBodySection(bodySection))}
		if buf.Envelope != nil {
			msg.Subject = buf.Envelope.Subject
			msg.Date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				msg.From = buf.Envelope.From[0].Addr()
			}
		}
		messages = append(messages, msg)
	}

	markSeen := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}
	if err := client.Store(seqSet, markSeen, nil).Close(); err != nil {
		s.logger.Warn("mark messages seen failed", zap.Error(err))
	}

	s.logger.Debug("inbox fetch complete",
		zap.Int("messages", len(messages)),
		zap.Time("since", since),
	)

	return messages, nil
}
