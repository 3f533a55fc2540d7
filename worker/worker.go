// Package worker runs the fixed pool of goroutines that drain the task
// queue against a shared filesystem, and the shutdown coordinator that winds
// the pool down in order.
package worker

import (
	"fmt"
	"io"
	"sync"

	"github.com/elias-chen/simplefs/errors"
	"github.com/elias-chen/simplefs/filesystem"
	"github.com/elias-chen/simplefs/logging"
	"github.com/elias-chen/simplefs/queue"
	"github.com/hashicorp/go-multierror"
)

// NumConsumers is the fixed number of worker goroutines the pool starts,
// regardless of how many tasks are ever queued.
const NumConsumers = 4

// Pool owns a fixed set of worker goroutines draining q against fs, writing
// each task's textual result to out.
type Pool struct {
	fs    *filesystem.FileSystem
	q     *queue.TaskQueue
	out   io.Writer
	outMu sync.Mutex
	log   *logging.Logger

	wg sync.WaitGroup
}

// NewPool builds a pool. Start must be called to actually launch workers.
func NewPool(fs *filesystem.FileSystem, q *queue.TaskQueue, out io.Writer) *Pool {
	return &Pool{fs: fs, q: q, out: out, log: logging.Default("worker")}
}

// Start launches NumConsumers worker goroutines, each looping Dequeue->
// dispatch until the queue reports ErrQueueClosed.
func (p *Pool) Start() {
	for i := 0; i < NumConsumers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	p.log.Infof("worker %d started", id)

	for {
		task, err := p.q.Dequeue()
		if err == queue.ErrQueueClosed {
			p.log.Infof("worker %d stopping: queue closed", id)
			return
		}
		if err != nil {
			p.log.Errorf("worker %d: dequeue: %s", id, err)
			continue
		}
		p.writeLine(p.dispatch(task))
	}
}

func (p *Pool) writeLine(line string) {
	if line == "" {
		return
	}
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintln(p.out, line)
}

// dispatch executes one task against the filesystem and renders its result
// as the line the shell would print for it.
func (p *Pool) dispatch(task queue.Task) string {
	switch task.Command {
	case queue.CommandFormat:
		if err := p.fs.FormatDisk(); err != nil {
			return fmt.Sprintf("format: %s", err)
		}
		return "disk formatted"

	case queue.CommandDf:
		info, err := p.fs.ShowDiskInfo()
		if err != nil {
			return fmt.Sprintf("df: %s", err)
		}
		return fmt.Sprintf(
			"inodes: %d/%d free, blocks: %d/%d free, files: %d",
			info.FreeInodeCount, info.MaxFiles, info.FreeDataCount, info.DataBlocks, info.FileCount,
		)

	case queue.CommandTouch:
		if err := p.fs.CreateFile(task.Arg1); err != nil {
			return fmt.Sprintf("touch %s: %s", task.Arg1, err)
		}
		return fmt.Sprintf("created %s", task.Arg1)

	case queue.CommandRm:
		if err := p.fs.DeleteFile(task.Arg1); err != nil {
			return fmt.Sprintf("rm %s: %s", task.Arg1, err)
		}
		return fmt.Sprintf("removed %s", task.Arg1)

	case queue.CommandLs:
		listing, err := p.fs.ListDirectory()
		if err != nil {
			return fmt.Sprintf("ls: %s", err)
		}
		if len(listing) == 0 {
			return "(empty)"
		}
		out := ""
		for i, entry := range listing {
			if i > 0 {
				out += "\n"
			}
			kind := "file"
			if entry.Type.IsDirectory() {
				kind = "dir"
			}
			out += fmt.Sprintf("%s\t%s\t%d", kind, entry.Name, entry.Size)
		}
		return out

	case queue.CommandCat:
		data, err := p.fs.ReadFile(task.Arg1, queue.MaxContentLen)
		if err != nil {
			return fmt.Sprintf("cat %s: %s", task.Arg1, err)
		}
		return string(data)

	case queue.CommandEcho:
		if err := p.fs.CreateFile(task.Arg1); err != nil && err != errors.ErrAlreadyExists {
			return fmt.Sprintf("echo %s: %s", task.Arg1, err)
		}
		written, err := p.fs.WriteFile(task.Arg1, task.Content)
		if err != nil {
			return fmt.Sprintf("echo %s: %s", task.Arg1, err)
		}
		return fmt.Sprintf("wrote %d bytes to %s", written, task.Arg1)

	case queue.CommandCopy:
		written, err := p.fs.CopyFile(task.Arg1, task.Arg2)
		if err != nil {
			return fmt.Sprintf("cp %s %s: %s", task.Arg1, task.Arg2, err)
		}
		return fmt.Sprintf("copied %d bytes from %s to %s", written, task.Arg1, task.Arg2)

	case queue.CommandTest:
		return p.runStressTask(task)

	case queue.CommandHelp:
		return helpText

	default:
		return "unknown command"
	}
}

// runStressTask exercises create->write->read-back->delete on one
// generated filename, used by the stress-test shell command to hammer the
// pool with many independent tasks at once.
func (p *Pool) runStressTask(task queue.Task) string {
	name := task.Arg1
	payload := task.Content
	if len(payload) == 0 {
		payload = []byte("stress test payload")
	}

	if err := p.fs.CreateFile(name); err != nil {
		return fmt.Sprintf("stress-test %s: create: %s", name, err)
	}
	if _, err := p.fs.WriteFile(name, payload); err != nil {
		return fmt.Sprintf("stress-test %s: write: %s", name, err)
	}
	data, err := p.fs.ReadFile(name, uint32(len(payload)))
	if err != nil {
		return fmt.Sprintf("stress-test %s: read: %s", name, err)
	}
	if string(data) != string(payload) {
		return fmt.Sprintf("stress-test %s: read-back mismatch", name)
	}
	if err := p.fs.DeleteFile(name); err != nil {
		return fmt.Sprintf("stress-test %s: delete: %s", name, err)
	}
	return fmt.Sprintf("stress-test %s: ok", name)
}

const helpText = `commands: format, df, touch <name>, rm <name>, ls, cat <name>, echo <name> <content>, cp <src> <dst>, stress-test, exit`

// Shutdown stops accepting new work, closes q so every blocked worker wakes
// up and exits, waits for all of them to return, and finally closes the
// backing device. Worker-level errors are not collected here (dispatch
// converts them to a printed line); the only error Shutdown returns is the
// device's close error, wrapped in a multierror.
func (p *Pool) Shutdown() error {
	p.log.Info("shutdown: draining queue")
	p.q.Shutdown()
	p.wg.Wait()
	p.log.Info("shutdown: all workers stopped")

	var result *multierror.Error
	if err := p.fs.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
