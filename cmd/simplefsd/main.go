package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/elias-chen/simplefs/disks"
	"github.com/elias-chen/simplefs/filesystem"
	"github.com/elias-chen/simplefs/queue"
	"github.com/elias-chen/simplefs/worker"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Usage: "Run a simulated single-directory filesystem on top of a disk image file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "image",
				Usage: "path to the backing disk image file",
				Value: "disk.img",
			},
			&cli.StringFlag{
				Name:  "geometry",
				Usage: fmt.Sprintf("named disk geometry preset (%s)", strings.Join(disks.Names(), ", ")),
				Value: "default",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "create or wipe the image, leaving an empty root directory",
				ArgsUsage: " ",
				Action:    formatImage,
			},
		},
		Action: runShell,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func openFromFlags(context *cli.Context) (*filesystem.FileSystem, error) {
	geom, err := disks.Resolve(context.String("geometry"))
	if err != nil {
		return nil, err
	}
	return filesystem.Open(context.String("image"), geom)
}

func formatImage(context *cli.Context) error {
	fs, err := openFromFlags(context)
	if err != nil {
		return err
	}
	defer fs.Close()

	if err := fs.FormatDisk(); err != nil {
		return err
	}
	fmt.Printf("formatted %s\n", fs.Path())
	return nil
}

// runShell is the default action: it opens (without formatting) the image,
// starts the fixed worker pool, and reads commands from stdin until EOF or
// "exit", blocking until the queue drains before returning.
func runShell(context *cli.Context) error {
	fs, err := openFromFlags(context)
	if err != nil {
		return err
	}

	q := queue.New(10)
	pool := worker.NewPool(fs, q, os.Stdout)
	pool.Start()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}

		task, err := parseLine(line)
		if err != nil {
			fmt.Fprintln(os.Stdout, err)
			continue
		}

		if task.Command == commandStressTest {
			if err := enqueueStressTasks(q); err != nil {
				fmt.Fprintln(os.Stdout, err)
			}
			continue
		}

		if err := q.Enqueue(task); err != nil {
			fmt.Fprintln(os.Stdout, err)
		}
	}

	return pool.Shutdown()
}

// commandStressTest is handled by the shell itself (it fans out many
// queue.CommandTest tasks) rather than being a queue.Command on its own.
const commandStressTest = queue.Command(-1)

func parseLine(line string) (queue.Task, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return queue.Task{}, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "help":
		return queue.Task{Command: queue.CommandHelp}, nil
	case "format":
		return queue.Task{Command: queue.CommandFormat}, nil
	case "df":
		return queue.Task{Command: queue.CommandDf}, nil
	case "touch":
		if len(fields) != 2 {
			return queue.Task{}, fmt.Errorf("usage: touch <name>")
		}
		return queue.Task{Command: queue.CommandTouch, Arg1: fields[1]}, nil
	case "rm":
		if len(fields) != 2 {
			return queue.Task{}, fmt.Errorf("usage: rm <name>")
		}
		return queue.Task{Command: queue.CommandRm, Arg1: fields[1]}, nil
	case "ls":
		return queue.Task{Command: queue.CommandLs}, nil
	case "cat":
		if len(fields) != 2 {
			return queue.Task{}, fmt.Errorf("usage: cat <name>")
		}
		return queue.Task{Command: queue.CommandCat, Arg1: fields[1]}, nil
	case "echo":
		if len(fields) < 3 {
			return queue.Task{}, fmt.Errorf("usage: echo <name> <content>")
		}
		content := strings.Join(fields[2:], " ")
		return queue.Task{Command: queue.CommandEcho, Arg1: fields[1], Content: []byte(content)}, nil
	case "cp":
		if len(fields) != 3 {
			return queue.Task{}, fmt.Errorf("usage: cp <src> <dst>")
		}
		return queue.Task{Command: queue.CommandCopy, Arg1: fields[1], Arg2: fields[2]}, nil
	case "stress-test":
		return queue.Task{Command: commandStressTest}, nil
	default:
		return queue.Task{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

// enqueueStressTasks enqueues 50 independent create/write/read/delete tasks
// with distinct filenames and blocks until the queue has room for all of
// them, exercising the worker pool under concurrent load. Every task's
// enqueue failure is collected rather than discarded, so a caller sees all
// of them instead of only the first.
func enqueueStressTasks(q *queue.TaskQueue) error {
	const n = 50
	var result *multierror.Error
	for i := 0; i < n; i++ {
		name := "stress-" + strconv.Itoa(i)
		if err := q.Enqueue(queue.Task{Command: queue.CommandTest, Arg1: name}); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}
	return result.ErrorOrNil()
}
