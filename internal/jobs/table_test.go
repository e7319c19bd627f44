package jobs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brainless/GoFish/internal/jobs"
)

func TestTableAddAndGet(t *testing.T) {
	table := jobs.NewTable()

	j1 := table.Add(&jobs.Job{Pgid: 100, Command: "sleep 5"})
	j2 := table.Add(&jobs.Job{Pgid: 200, Command: "vim", Background: true})

	assert.Equal(t, 1, j1.ID)
	assert.Equal(t, 2, j2.ID)
	assert.Equal(t, j1, table.Get(1))
	assert.Equal(t, j2, table.Get(2))
	assert.Nil(t, table.Get(99))
}

func TestTableForeachNewestFirst(t *testing.T) {
	table := jobs.NewTable()
	table.Add(&jobs.Job{Pgid: 1, Command: "first"})
	table.Add(&jobs.Job{Pgid: 2, Command: "second"})

	var seen []string
	table.Foreach(func(j *jobs.Job) bool {
		seen = append(seen, j.Command)
		return true
	})
	assert.Equal(t, []string{"second", "first"}, seen)
}

func TestTableForeachStops(t *testing.T) {
	table := jobs.NewTable()
	table.Add(&jobs.Job{Pgid: 1, Command: "a"})
	table.Add(&jobs.Job{Pgid: 2, Command: "b"})

	count := 0
	table.Foreach(func(j *jobs.Job) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestTableRemove(t *testing.T) {
	table := jobs.NewTable()
	j := table.Add(&jobs.Job{Pgid: 1, Command: "a"})

	assert.NoError(t, table.Remove(j.ID))
	assert.Nil(t, table.Get(j.ID))
	assert.Error(t, table.Remove(j.ID))
}

func TestLastBackgroundPgid(t *testing.T) {
	table := jobs.NewTable()
	assert.Equal(t, 0, table.LastBackgroundPgid())

	table.Add(&jobs.Job{Pgid: 10, Command: "fg job"})
	assert.Equal(t, 0, table.LastBackgroundPgid())

	table.Add(&jobs.Job{Pgid: 20, Command: "bg job", Background: true})
	assert.Equal(t, 20, table.LastBackgroundPgid())
}

func TestCommandIsEmpty(t *testing.T) {
	assert.True(t, (&jobs.Job{}).CommandIsEmpty())
	assert.False(t, (&jobs.Job{Command: "x"}).CommandIsEmpty())
}
