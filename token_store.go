package goAccounts

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goAccounts/internal"
)

const tokenRecordVersionV1 = 1

var (
	errTokenNotFound         = errors.New("one-time token not found")
	errTokenSecretMismatch   = errors.New("one-time token secret mismatch")
	errTokenRedisUnavailable = errors.New("one-time token redis unavailable")
)

type oneTimeTokenRecord struct {
	AccountID  string
	SecretHash [32]byte
	ExpiresAt  int64
}

// oneTimeTokenStore keeps single-use tokens in Redis. Tokens are opaque
// strings carrying an ID and a random secret; only the secret's SHA-256
// hash is stored. Consumption is a WATCH-guarded check-and-delete so two
// concurrent redemptions of the same token cannot both succeed.
type oneTimeTokenStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func newOneTimeTokenStore(redisClient *redis.Client, prefix string, ttl time.Duration) *oneTimeTokenStore {
	return &oneTimeTokenStore{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *oneTimeTokenStore) key(typ TokenType, tokenID string) string {
	return s.prefix + ":ott:" + string(typ) + ":" + tokenID
}

// Generate mints a token of the given type bound to accountID and returns
// the opaque string handed to the account holder. The stored record
// expires after the configured TTL.
func (s *oneTimeTokenStore) Generate(ctx context.Context, typ TokenType, accountID string) (string, error) {
	tid, err := internal.NewTokenID()
	if err != nil {
		return "", err
	}
	secret, err := internal.NewTokenSecret()
	if err != nil {
		return "", err
	}

	record := &oneTimeTokenRecord{
		AccountID:  accountID,
		SecretHash: internal.HashTokenSecret(secret),
		ExpiresAt:  time.Now().Add(s.ttl).Unix(),
	}
	encoded, err := encodeOneTimeTokenRecord(record)
	if err != nil {
		return "", err
	}

	if err := s.redis.Set(ctx, s.key(typ, tid.String()), encoded, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", errTokenRedisUnavailable, err)
	}

	return internal.EncodeToken(tid.String(), secret)
}

// Consume validates and atomically deletes the token, returning the bound
// account ID. Expired, malformed, unknown and already-consumed tokens all
// fail the same way so callers can map every failure to a single error.
func (s *oneTimeTokenStore) Consume(ctx context.Context, typ TokenType, opaque string) (string, error) {
	tokenID, secret, err := internal.DecodeToken(opaque)
	if err != nil {
		return "", errTokenNotFound
	}
	providedHash := internal.HashTokenSecret(secret)

	const maxRetries = 4
	key := s.key(typ, tokenID)

	for i := 0; i < maxRetries; i++ {
		var accountID string

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeOneTimeTokenRecord(data)
			if err != nil {
				return err
			}

			if time.Now().Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errTokenNotFound
			}

			if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
				return errTokenSecretMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}

			accountID = record.AccountID
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, errTokenNotFound), errors.Is(err, errTokenSecretMismatch):
				return "", errTokenNotFound
			default:
				return "", fmt.Errorf("%w: %v", errTokenRedisUnavailable, err)
			}
		}

		return accountID, nil
	}

	return "", errTokenNotFound
}

func encodeOneTimeTokenRecord(record *oneTimeTokenRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(tokenRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.AccountID) > 65535 {
		return nil, errors.New("one-time token account id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.AccountID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.AccountID)
	buf.Write(record.SecretHash[:])

	return buf.Bytes(), nil
}

func decodeOneTimeTokenRecord(data []byte) (*oneTimeTokenRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != tokenRecordVersionV1 {
		return nil, errors.New("invalid one-time token record version")
	}

	record := &oneTimeTokenRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var accountIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &accountIDLen); err != nil {
		return nil, err
	}

	accountID := make([]byte, accountIDLen)
	if _, err := io.ReadFull(reader, accountID); err != nil {
		return nil, err
	}
	record.AccountID = string(accountID)

	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
