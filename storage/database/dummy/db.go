package dummydb

import (
	"sync"

	"github.com/trezcool/ongea/core/bot"
)

type (
	DB struct {
		bot *botTable
	}

	botTable struct {
		sync.RWMutex
		table map[string]*bot.Bot
	}
)

func Open() (*DB, error) {
	db := &DB{
		bot: &botTable{table: make(map[string]*bot.Bot)},
	}
	return db, nil
}
