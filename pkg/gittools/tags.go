package gittools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"k8s.io/klog/v2"
)

const tagger = "shiplane"

// OpenWorkingCopy opens the repository containing dir, walking up to
// find the .git directory.
func OpenWorkingCopy(dir string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
}

// TagRelease creates an annotated tag named version at HEAD and pushes
// it to origin. A remote that already has the tag is not an error.
func TagRelease(ctx context.Context, repo *git.Repository, version, message string) error {
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("can't resolve HEAD: %w", err)
	}
	klog.V(5).Infof("HEAD is at %q", head)

	_, err = repo.CreateTag(version, head.Hash(), &git.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  tagger,
			Email: tagger + "@localhost",
			When:  time.Now(),
		},
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("can't create tag %q: %w", version, err)
	}

	refSpec := config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", version, version))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{refSpec},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("can't push tag %q: %w", version, err)
	}

	klog.V(3).Infof("Tag %q pushed to %q", version, git.DefaultRemoteName)

	return nil
}
