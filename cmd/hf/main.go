// Command hf is a command line client for a Hugging Face compatible
// hub: login, repo management, file upload and download.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"github.com/wzshiming/hfapi/pkg/cache"
	"github.com/wzshiming/hfapi/pkg/credential"
	"github.com/wzshiming/hfapi/pkg/hfapi"
	"github.com/wzshiming/hfapi/pkg/repoid"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: hf <command> [flags] [args]

Commands:
  login     -token <token>          Save an access token
  logout                            Remove the saved token
  whoami                            Show the account behind the token
  create    [flags] <name>          Create a repository
  delete    [flags] <name>          Delete a repository
  upload    [flags] <repo> <file>   Upload a file to a repository
  download  [flags] <repo> <file>   Download a file from a repository
  files     [flags] <repo>          List files in a repository

The hub endpoint defaults to %s and can be overridden
with the HF_ENDPOINT environment variable.
`, hfapi.DefaultEndpoint)
	os.Exit(2)
}

func newClient() *hfapi.Client {
	opts := []hfapi.Option{}
	if endpoint := os.Getenv("HF_ENDPOINT"); endpoint != "" {
		opts = append(opts, hfapi.WithEndpoint(endpoint))
	}
	return hfapi.NewClient(opts...)
}

func repoTypeFlag(fs *flag.FlagSet) *string {
	return fs.String("type", "", "Repository type: model (default), dataset or space")
}

func parseRepoType(value string) repoid.RepoType {
	repoType := repoid.RepoType(value)
	if value == "model" {
		repoType = repoid.RepoTypeModel
	}
	if !repoid.Valid(repoType) {
		log.Fatalf("invalid repo type %q", value)
	}
	return repoType
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}

	ctx := context.Background()
	command, args := os.Args[1], os.Args[2:]

	switch command {
	case "login":
		cmdLogin(ctx, args)
	case "logout":
		cmdLogout(ctx, args)
	case "whoami":
		cmdWhoami(ctx, args)
	case "create":
		cmdCreate(ctx, args)
	case "delete":
		cmdDelete(ctx, args)
	case "upload":
		cmdUpload(ctx, args)
	case "download":
		cmdDownload(ctx, args)
	case "files":
		cmdFiles(ctx, args)
	default:
		usage()
	}
}

func cmdLogin(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	token := fs.String("token", "", "Access token to save")
	useGit := fs.Bool("git-credential", false, "Also store the token in the git credential store")
	fs.Parse(args)

	if *token == "" {
		log.Fatal("login requires -token")
	}

	client := newClient()
	account, err := hfapi.NewClient(
		hfapi.WithEndpoint(client.Endpoint()),
		hfapi.WithToken(*token),
	).Whoami(ctx)
	if err != nil {
		log.Fatalf("token rejected by hub: %v", err)
	}

	folder := credential.NewFolder()
	if err := folder.SaveToken(*token); err != nil {
		log.Fatalf("failed to save token: %v", err)
	}
	if *useGit {
		store := &credential.GitStore{}
		if err := store.Store(ctx, client.Endpoint(), *token); err != nil {
			log.Fatalf("failed to store git credential: %v", err)
		}
	}
	fmt.Printf("Logged in as %s\n", account.Name)
}

func cmdLogout(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	useGit := fs.Bool("git-credential", false, "Also erase the token from the git credential store")
	fs.Parse(args)

	folder := credential.NewFolder()
	if err := folder.DeleteToken(); err != nil {
		log.Fatalf("failed to delete token: %v", err)
	}
	if *useGit {
		store := &credential.GitStore{}
		if err := store.Erase(ctx, newClient().Endpoint()); err != nil {
			log.Fatalf("failed to erase git credential: %v", err)
		}
	}
	fmt.Println("Logged out")
}

func cmdWhoami(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	fs.Parse(args)

	account, err := newClient().Whoami(ctx)
	if err != nil {
		log.Fatalf("whoami failed: %v", err)
	}
	fmt.Println(account.Name)
	for _, org := range account.Orgs {
		fmt.Printf("  org: %s\n", org.Name)
	}
}

func cmdCreate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	repoType := repoTypeFlag(fs)
	organization := fs.String("organization", "", "Create under an organization")
	private := fs.Bool("private", false, "Create a private repository")
	existOK := fs.Bool("exist-ok", false, "Do not fail when the repository already exists")
	spaceSDK := fs.String("space-sdk", "", "SDK for spaces: gradio, streamlit or static")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatal("create requires exactly one repository name")
	}

	url, err := newClient().CreateRepo(ctx, fs.Arg(0), &hfapi.CreateRepoOptions{
		Organization: *organization,
		Type:         parseRepoType(*repoType),
		Private:      *private,
		ExistOK:      *existOK,
		SpaceSDK:     *spaceSDK,
	})
	if err != nil {
		log.Fatalf("create failed: %v", err)
	}
	fmt.Println(url)
}

func cmdDelete(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	repoType := repoTypeFlag(fs)
	organization := fs.String("organization", "", "Repository organization")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatal("delete requires exactly one repository name")
	}

	err := newClient().DeleteRepo(ctx, fs.Arg(0), *organization, parseRepoType(*repoType))
	if err != nil {
		log.Fatalf("delete failed: %v", err)
	}
	fmt.Println("Deleted")
}

func cmdUpload(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	repoType := repoTypeFlag(fs)
	revision := fs.String("revision", "", "Branch to commit to")
	message := fs.String("message", "", "Commit message summary")
	pathInRepo := fs.String("path", "", "Path in the repository; defaults to the file name")
	fs.Parse(args)

	if fs.NArg() != 2 {
		log.Fatal("upload requires a repository and a local file")
	}
	repo, localPath := fs.Arg(0), fs.Arg(1)

	target := *pathInRepo
	if target == "" {
		target = path.Base(localPath)
	}

	file, err := os.Open(localPath)
	if err != nil {
		log.Fatalf("failed to open %s: %v", localPath, err)
	}
	defer file.Close()

	info, err := newClient().UploadFile(ctx, repo, parseRepoType(*repoType), target, file, &hfapi.UploadOptions{
		Revision:      *revision,
		CommitSummary: *message,
	})
	if err != nil {
		log.Fatalf("upload failed: %v", err)
	}
	fmt.Printf("Committed %s\n%s\n", info.CommitOID, info.CommitURL)
}

func cmdDownload(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	repoType := repoTypeFlag(fs)
	revision := fs.String("revision", "", "Revision to download from")
	cacheDir := fs.String("cache-dir", "", "Cache directory; defaults to ~/.cache/hfapi")
	force := fs.Bool("force", false, "Redownload even when cached")
	output := fs.String("o", "", "Copy the file to this path instead of printing the cache path")
	fs.Parse(args)

	if fs.NArg() != 2 {
		log.Fatal("download requires a repository and a file path")
	}
	repo, filename := fs.Arg(0), fs.Arg(1)

	dir := *cacheDir
	if dir == "" {
		home, err := os.UserCacheDir()
		if err != nil {
			log.Fatalf("failed to locate cache directory: %v", err)
		}
		dir = home + "/hfapi"
	}

	client := newClient()
	store, err := cache.Open(dir)
	if err != nil {
		log.Fatalf("failed to open cache: %v", err)
	}
	defer store.Close()

	token, err := credential.NewFolder().Token()
	if err != nil {
		log.Fatalf("failed to read token: %v", err)
	}

	url := client.DownloadURL(repo, parseRepoType(*repoType), *revision, filename)
	blobPath, err := store.Download(ctx, url, &cache.DownloadOptions{
		Force: *force,
		Token: token,
	})
	if err != nil {
		log.Fatalf("download failed: %v", err)
	}

	if *output != "" {
		data, err := os.ReadFile(blobPath)
		if err != nil {
			log.Fatalf("failed to read blob: %v", err)
		}
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			log.Fatalf("failed to write %s: %v", *output, err)
		}
		fmt.Println(*output)
		return
	}
	fmt.Println(blobPath)
}

func cmdFiles(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("files", flag.ExitOnError)
	repoType := repoTypeFlag(fs)
	revision := fs.String("revision", "", "Revision to list")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatal("files requires exactly one repository name")
	}

	files, err := newClient().ListRepoFiles(ctx, fs.Arg(0), parseRepoType(*repoType), *revision)
	if err != nil {
		log.Fatalf("listing failed: %v", err)
	}
	fmt.Println(strings.Join(files, "\n"))
}
