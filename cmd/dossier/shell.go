package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dossierdb/dossier"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell on the database",
	Long: `Open a line-edited shell against the configured database file.
Commands run against the current collection, switched with "use".
Queries and documents are written as JSON literals.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: runShell,
}

func init() {
	key := "history"
	shellCmd.Flags().String(key, "", "history file (defaults to ~/.dossier_history)")
}

const shellHelp = `commands:
  use <collection>                           switch the current collection
  collections ensure <name>                  create a collection
  collections remove <name> [prune]          drop a collection
  save <json doc or array>                   upsert documents, prints ids
  load <id>                                  print one document by id
  remove <id>                                delete one document by id
  find [json query]                          print matching documents
  findone [json query]                       print the first match
  count [json query]                         print the number of matches
  update <json query>                        apply $set/$unset/$inc/... clauses
  index <kind> <ensure|rebuild|drop> <path>  manage a string|istring|number|array index
  index <dropall|optimize> <path>            kind-independent index ops
  sync                                       flush the database file
  help                                       this text
  exit                                       leave the shell`

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, err := openDatabase(ctx, 0)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	sh := &shell{db: db, coll: "doc"}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := viper.GetString("history")
	if histPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			histPath = filepath.Join(home, ".dossier_history")
		}
	}
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Printf("dossier v%s, database %q\n", version, viper.GetString("db"))
	fmt.Println(`Type "help" for commands, "exit" to leave.`)

	for {
		input, err := line.Prompt(sh.coll + "> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println()
			break
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		out, done, err := sh.execute(ctx, input)
		if err != nil {
			fmt.Println("ERROR:", err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
		if done {
			break
		}
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

// shell holds the REPL state: the open database and the collection
// subsequent commands run against.
type shell struct {
	db   dossier.DB
	coll string
}

// execute runs one input line. It returns the text to print and
// whether the shell should terminate.
func (sh *shell) execute(ctx context.Context, input string) (string, bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "help":
		return shellHelp, false, nil
	case "exit", "quit":
		return "", true, nil
	case "use":
		if arg == "" {
			return "", false, fmt.Errorf("usage: use <collection>")
		}
		sh.coll = arg
		return "", false, nil
	case "collections":
		return sh.collections(ctx, arg)
	case "save":
		return sh.save(ctx, arg)
	case "load":
		return sh.load(ctx, arg)
	case "remove":
		if arg == "" {
			return "", false, fmt.Errorf("usage: remove <id>")
		}
		return "", false, sh.db.Remove(ctx, sh.coll, arg)
	case "find":
		return sh.find(ctx, arg)
	case "findone":
		return sh.findOne(ctx, arg)
	case "count":
		return sh.count(ctx, arg)
	case "update":
		return sh.update(ctx, arg)
	case "index":
		return sh.index(ctx, arg)
	case "sync":
		return "", false, sh.db.Sync(ctx)
	default:
		return "", false, fmt.Errorf("unknown command %q", name)
	}
}

func (sh *shell) collections(ctx context.Context, arg string) (string, bool, error) {
	fields := strings.Fields(arg)
	if len(fields) < 2 {
		return "", false, fmt.Errorf("usage: collections <ensure|remove> <name> [prune]")
	}
	switch fields[0] {
	case "ensure":
		return "", false, sh.db.EnsureCollection(ctx, fields[1])
	case "remove":
		prune := len(fields) > 2 && fields[2] == "prune"
		return "", false, sh.db.RemoveCollection(ctx, fields[1], prune)
	default:
		return "", false, fmt.Errorf("unknown collections op %q", fields[0])
	}
}

func (sh *shell) save(ctx context.Context, arg string) (string, bool, error) {
	if arg == "" {
		return "", false, fmt.Errorf("usage: save <json document or array>")
	}
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return "", false, fmt.Errorf("malformed document: %v", err)
	}
	docs, ok := v.([]any)
	if !ok {
		docs = []any{v}
	}
	ids, err := sh.db.Save(ctx, sh.coll, docs...)
	if err != nil {
		return "", false, err
	}
	return strings.Join(ids, "\n"), false, nil
}

func (sh *shell) load(ctx context.Context, arg string) (string, bool, error) {
	if arg == "" {
		return "", false, fmt.Errorf("usage: load <id>")
	}
	doc, err := sh.db.Load(ctx, sh.coll, arg)
	if err != nil {
		return "", false, err
	}
	if doc == nil {
		return "not found", false, nil
	}
	return marshalDoc(doc)
}

func (sh *shell) find(ctx context.Context, arg string) (string, bool, error) {
	query, err := parseQuery(arg)
	if err != nil {
		return "", false, err
	}
	cur, err := sh.db.Find(ctx, sh.coll, query)
	if err != nil {
		return "", false, err
	}
	defer cur.Close()

	var out strings.Builder
	for cur.Next() {
		raw, err := json.Marshal(cur.Document())
		if err != nil {
			return "", false, err
		}
		out.Write(raw)
		out.WriteByte('\n')
	}
	if err := cur.Err(); err != nil {
		return "", false, err
	}
	fmt.Fprintf(&out, "(%d matched)", cur.Count())
	return out.String(), false, nil
}

func (sh *shell) findOne(ctx context.Context, arg string) (string, bool, error) {
	query, err := parseQuery(arg)
	if err != nil {
		return "", false, err
	}
	doc, err := sh.db.FindOne(ctx, sh.coll, query)
	if err != nil {
		return "", false, err
	}
	if doc == nil {
		return "no match", false, nil
	}
	return marshalDoc(doc)
}

func (sh *shell) count(ctx context.Context, arg string) (string, bool, error) {
	query, err := parseQuery(arg)
	if err != nil {
		return "", false, err
	}
	n, err := sh.db.Count(ctx, sh.coll, query)
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("%d", n), false, nil
}

func (sh *shell) update(ctx context.Context, arg string) (string, bool, error) {
	if arg == "" {
		return "", false, fmt.Errorf("usage: update <json query with update clauses>")
	}
	query, err := parseQuery(arg)
	if err != nil {
		return "", false, err
	}
	n, log, err := sh.db.Update(ctx, sh.coll, query)
	if err != nil {
		return "", false, err
	}
	out := fmt.Sprintf("%d updated", n)
	if log != "" {
		out += "\n" + log
	}
	return out, false, nil
}

func (sh *shell) index(ctx context.Context, arg string) (string, bool, error) {
	fields := strings.Fields(arg)
	if len(fields) == 2 {
		switch fields[0] {
		case "dropall":
			return "", false, sh.db.DropIndexes(ctx, sh.coll, fields[1])
		case "optimize":
			return "", false, sh.db.OptimizeIndexes(ctx, sh.coll, fields[1])
		}
	}
	if len(fields) != 3 {
		return "", false, fmt.Errorf("usage: index <kind> <op> <path>, see help")
	}
	kind, op, path := fields[0], fields[1], fields[2]

	var ops struct {
		ensure, rebuild, drop func(context.Context, string, string) error
	}
	switch kind {
	case "string":
		ops.ensure, ops.rebuild, ops.drop = sh.db.EnsureStringIndex, sh.db.RebuildStringIndex, sh.db.DropStringIndex
	case "istring":
		ops.ensure, ops.rebuild, ops.drop = sh.db.EnsureIStringIndex, sh.db.RebuildIStringIndex, sh.db.DropIStringIndex
	case "number":
		ops.ensure, ops.rebuild, ops.drop = sh.db.EnsureNumberIndex, sh.db.RebuildNumberIndex, sh.db.DropNumberIndex
	case "array":
		ops.ensure, ops.rebuild, ops.drop = sh.db.EnsureArrayIndex, sh.db.RebuildArrayIndex, sh.db.DropArrayIndex
	default:
		return "", false, fmt.Errorf("unknown index kind %q", kind)
	}

	switch op {
	case "ensure":
		return "", false, ops.ensure(ctx, sh.coll, path)
	case "rebuild":
		return "", false, ops.rebuild(ctx, sh.coll, path)
	case "drop":
		return "", false, ops.drop(ctx, sh.coll, path)
	default:
		return "", false, fmt.Errorf("unknown index op %q", op)
	}
}

func parseQuery(arg string) (dossier.M, error) {
	if arg == "" {
		return dossier.M{}, nil
	}
	var q dossier.M
	if err := json.Unmarshal([]byte(arg), &q); err != nil {
		return nil, fmt.Errorf("malformed query: %v", err)
	}
	return q, nil
}

func marshalDoc(doc dossier.M) (string, bool, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", false, err
	}
	return string(raw), false, nil
}
