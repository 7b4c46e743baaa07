package tracker

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/finance-tracker/internal/reward"
)

const (
	transactionBucketName = "transactions"      // sequence -> transaction, insertion ordered
	transactionIndexName  = "transaction_index" // id -> sequence
	goalBucketName        = "goals"
	rewardBucketName      = "rewards"
)

// ledgerKey is the single reward record
var ledgerKey = []byte("ledger")

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// DB defines the interface for database operations
type DB interface {
	// CommitTransaction appends a new transaction or updates an existing one in
	// place, and saves the ledger with it when ledger is not nil. Both are
	// written or neither is.
	CommitTransaction(tx *Transaction, ledger *reward.Ledger) error

	// GetTransaction retrieves a transaction by ID
	GetTransaction(id string) (*Transaction, error)

	// ListTransactions returns all transactions in insertion order
	ListTransactions() ([]*Transaction, error)

	// DeleteTransaction removes a transaction
	DeleteTransaction(id string) error

	// ClearTransactions removes every transaction
	ClearTransactions() error

	// CountTransactions returns the number of transactions and of income transactions
	CountTransactions() (total int, income int, err error)

	// SaveGoal saves a goal
	SaveGoal(goal *Goal) error

	// GetGoal retrieves a goal by ID
	GetGoal(id string) (*Goal, error)

	// ListGoals returns all goals ordered by creation time
	ListGoals() ([]*Goal, error)

	// DeleteGoal removes a goal
	DeleteGoal(id string) error

	// GetLedger returns the reward ledger, or a default one created at now
	GetLedger(now time.Time) (*reward.Ledger, error)

	// SaveLedger persists the reward ledger
	SaveLedger(ledger *reward.Ledger) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{transactionBucketName, transactionIndexName, goalBucketName, rewardBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// putTransaction writes a transaction inside an open write transaction
func putTransaction(btx *bbolt.Tx, t *Transaction) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling transaction: %w", err)
	}

	bucket := btx.Bucket([]byte(transactionBucketName))
	index := btx.Bucket([]byte(transactionIndexName))

	key := index.Get([]byte(t.ID))
	if key == nil {
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating sequence: %w", err)
		}
		key = sequenceKey(seq)
		if err := index.Put([]byte(t.ID), key); err != nil {
			return err
		}
	}
	return bucket.Put(key, data)
}

// CommitTransaction saves a transaction and, if given, the ledger in one
// write transaction
func (b *BoltDB) CommitTransaction(t *Transaction, ledger *reward.Ledger) error {
	return b.db.Update(func(btx *bbolt.Tx) error {
		if err := putTransaction(btx, t); err != nil {
			return err
		}
		if ledger == nil {
			return nil
		}
		return putLedger(btx, ledger)
	})
}

// GetTransaction retrieves a transaction by ID
func (b *BoltDB) GetTransaction(id string) (*Transaction, error) {
	var t *Transaction
	err := b.db.View(func(btx *bbolt.Tx) error {
		key := btx.Bucket([]byte(transactionIndexName)).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
		}
		data := btx.Bucket([]byte(transactionBucketName)).Get(key)
		if data == nil {
			return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransactions returns all transactions in the order they were recorded
func (b *BoltDB) ListTransactions() ([]*Transaction, error) {
	transactions := make([]*Transaction, 0)
	err := b.db.View(func(btx *bbolt.Tx) error {
		return btx.Bucket([]byte(transactionBucketName)).ForEach(func(k, v []byte) error {
			var t Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshaling transaction: %w", err)
			}
			transactions = append(transactions, &t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// DeleteTransaction removes a transaction from the database
func (b *BoltDB) DeleteTransaction(id string) error {
	return b.db.Update(func(btx *bbolt.Tx) error {
		index := btx.Bucket([]byte(transactionIndexName))
		key := index.Get([]byte(id))
		if key == nil {
			return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
		}
		if err := btx.Bucket([]byte(transactionBucketName)).Delete(key); err != nil {
			return err
		}
		return index.Delete([]byte(id))
	})
}

// ClearTransactions drops both transaction buckets and recreates them empty
func (b *BoltDB) ClearTransactions() error {
	return b.db.Update(func(btx *bbolt.Tx) error {
		for _, name := range []string{transactionBucketName, transactionIndexName} {
			if err := btx.DeleteBucket([]byte(name)); err != nil {
				return fmt.Errorf("deleting bucket %s: %w", name, err)
			}
			if _, err := btx.CreateBucket([]byte(name)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// CountTransactions counts all transactions and the income ones
func (b *BoltDB) CountTransactions() (int, int, error) {
	var total, income int
	err := b.db.View(func(btx *bbolt.Tx) error {
		return btx.Bucket([]byte(transactionBucketName)).ForEach(func(k, v []byte) error {
			var t struct {
				Type reward.TransactionKind `json:"type"`
			}
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshaling transaction: %w", err)
			}
			total++
			if t.Type == reward.Income {
				income++
			}
			return nil
		})
	})
	if err != nil {
		return 0, 0, err
	}
	return total, income, nil
}

// SaveGoal saves a goal to the database
func (b *BoltDB) SaveGoal(goal *Goal) error {
	return b.db.Update(func(btx *bbolt.Tx) error {
		data, err := json.Marshal(goal)
		if err != nil {
			return fmt.Errorf("marshaling goal: %w", err)
		}
		return btx.Bucket([]byte(goalBucketName)).Put([]byte(goal.ID), data)
	})
}

// GetGoal retrieves a goal by ID
func (b *BoltDB) GetGoal(id string) (*Goal, error) {
	var goal *Goal
	err := b.db.View(func(btx *bbolt.Tx) error {
		data := btx.Bucket([]byte(goalBucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("goal %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// ListGoals returns all goals, oldest first
func (b *BoltDB) ListGoals() ([]*Goal, error) {
	goals := make([]*Goal, 0)
	err := b.db.View(func(btx *bbolt.Tx) error {
		return btx.Bucket([]byte(goalBucketName)).ForEach(func(k, v []byte) error {
			var goal Goal
			if err := json.Unmarshal(v, &goal); err != nil {
				return fmt.Errorf("unmarshaling goal: %w", err)
			}
			goals = append(goals, &goal)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
	return goals, nil
}

// DeleteGoal removes a goal from the database
func (b *BoltDB) DeleteGoal(id string) error {
	return b.db.Update(func(btx *bbolt.Tx) error {
		bucket := btx.Bucket([]byte(goalBucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("goal %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// GetLedger loads the reward ledger. A missing or unreadable record is
// replaced by a default ledger rather than failing.
func (b *BoltDB) GetLedger(now time.Time) (*reward.Ledger, error) {
	var data []byte
	err := b.db.View(func(btx *bbolt.Tx) error {
		// Copy: the value is only valid for the life of the transaction
		if v := btx.Bucket([]byte(rewardBucketName)).Get(ledgerKey); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	ledger, err := reward.Decode(data, now)
	if err != nil {
		slog.Warn("Stored reward ledger is unreadable, starting from defaults", "error", err)
		return reward.NewLedger(now), nil
	}
	return ledger, nil
}

func putLedger(btx *bbolt.Tx, ledger *reward.Ledger) error {
	data, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("marshaling ledger: %w", err)
	}
	return btx.Bucket([]byte(rewardBucketName)).Put(ledgerKey, data)
}

// SaveLedger saves the reward ledger
func (b *BoltDB) SaveLedger(ledger *reward.Ledger) error {
	return b.db.Update(func(btx *bbolt.Tx) error {
		return putLedger(btx, ledger)
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
