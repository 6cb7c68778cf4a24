package docstore

import (
	"fmt"
	"strings"
)

// Collection names under a user document
const (
	UsersCollection    = "users"
	ProjectsCollection = "projects"
	TagsCollection     = "tags"
	TasksCollection    = "tasks"
)

// UserDoc returns users/{uid}
func UserDoc(uid string) string {
	return UsersCollection + "/" + uid
}

// ProjectsCol returns users/{uid}/projects
func ProjectsCol(uid string) string {
	return UserDoc(uid) + "/" + ProjectsCollection
}

// TagsCol returns users/{uid}/tags
func TagsCol(uid string) string {
	return UserDoc(uid) + "/" + TagsCollection
}

// TasksCol returns users/{uid}/tasks
func TasksCol(uid string) string {
	return UserDoc(uid) + "/" + TasksCollection
}

// ProjectDoc returns users/{uid}/projects/{id}
func ProjectDoc(uid, id string) string {
	return ProjectsCol(uid) + "/" + id
}

// TagDoc returns users/{uid}/tags/{id}
func TagDoc(uid, id string) string {
	return TagsCol(uid) + "/" + id
}

// TaskDoc returns users/{uid}/tasks/{id}
func TaskDoc(uid, id string) string {
	return TasksCol(uid) + "/" + id
}

// UserCollections returns the collections owned by a user, in cascade order
func UserCollections(uid string) []string {
	return []string{ProjectsCol(uid), TagsCol(uid), TasksCol(uid)}
}

// SplitPath splits a document path into its parent collection and id.
func SplitPath(path string) (collection, id string, err error) {
	segs := strings.Split(path, "/")
	if len(segs)%2 != 0 || !validSegments(segs) {
		return "", "", fmt.Errorf("%w: document path %q", ErrInvalidPath, path)
	}
	return strings.Join(segs[:len(segs)-1], "/"), segs[len(segs)-1], nil
}

func checkCollection(path string) error {
	segs := strings.Split(path, "/")
	if len(segs)%2 != 1 || !validSegments(segs) {
		return fmt.Errorf("%w: collection path %q", ErrInvalidPath, path)
	}
	return nil
}

func validSegments(segs []string) bool {
	for _, s := range segs {
		if s == "" {
			return false
		}
	}
	return true
}
