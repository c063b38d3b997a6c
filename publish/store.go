package publish

import "context"

// Store is the narrow surface of the remote dataset catalog the pipeline
// needs. The production implementation is HubClient; tests substitute fakes.
type Store interface {
	// RepoExists reports whether the dataset repo exists at all, even empty.
	RepoExists(ctx context.Context, repoID string) (bool, error)

	// ListRepoFiles returns the file paths present in the repo.
	ListRepoFiles(ctx context.Context, repoID string) ([]string, error)

	// CreateRepo creates the dataset repo. Creating a repo that already
	// exists is not an error.
	CreateRepo(ctx context.Context, repoID string) error

	// UploadFile writes data under the given path inside the repo,
	// replacing any previous content at that path.
	UploadFile(ctx context.Context, repoID, path string, data []byte) error

	// ListDatasets returns the ids of all datasets owned by author whose
	// name contains the search term.
	ListDatasets(ctx context.Context, author, search string) ([]string, error)

	// DownloadFile fetches a file from the repo.
	DownloadFile(ctx context.Context, repoID, path string) ([]byte, error)
}
