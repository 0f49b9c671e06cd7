package notion

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockJSON(id, blockType string, hasChildren bool) string {
	return fmt.Sprintf(`{"object":"block","id":%q,"type":%q,"has_children":%t,%q:{"rich_text":[{"plain_text":"x"}]}}`,
		id, blockType, hasChildren, blockType)
}

func blockListJSON(hasMore bool, cursor string, blocks ...string) string {
	next := "null"
	if cursor != "" {
		next = strconv.Quote(cursor)
	}
	return fmt.Sprintf(`{"results":[%s],"has_more":%t,"next_cursor":%s}`,
		strings.Join(blocks, ","), hasMore, next)
}

func TestSource_FetchBlockTree_PreservesOrderAndNesting(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/blocks/page-1/children", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blockListJSON(false, "",
			blockJSON("block-a", "paragraph", false),
			blockJSON("block-b", "bulleted_list_item", true),
			blockJSON("block-c", "paragraph", false),
		))
	})
	mux.HandleFunc("/v1/blocks/block-b/children", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blockListJSON(false, "",
			blockJSON("block-d", "bulleted_list_item", false),
			blockJSON("block-e", "bulleted_list_item", false),
		))
	})

	src := newTestSource(t, mux, DataSourceFirst)

	blocks, err := src.FetchBlockTree(context.Background(), "page-1")

	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "block-a", blocks[0].ID)
	assert.Equal(t, "block-b", blocks[1].ID)
	assert.Equal(t, "block-c", blocks[2].ID)

	require.Len(t, blocks[1].Children, 2)
	assert.Equal(t, "block-d", blocks[1].Children[0].ID)
	assert.Equal(t, "block-e", blocks[1].Children[1].ID)

	assert.Empty(t, blocks[0].Children)
	assert.Empty(t, blocks[2].Children)
}

func TestSource_FetchBlockTree_ChildFailureLeavesEmptyChildren(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/blocks/page-1/children", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blockListJSON(false, "",
			blockJSON("block-a", "paragraph", false),
			blockJSON("block-b", "toggle", true),
			blockJSON("block-c", "paragraph", false),
		))
	})
	mux.HandleFunc("/v1/blocks/block-b/children", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	src := newTestSource(t, mux, DataSourceFirst)
	src.client.maxRetries = 0

	blocks, err := src.FetchBlockTree(context.Background(), "page-1")

	require.NoError(t, err, "a failed subtree must not fail the page")
	require.Len(t, blocks, 3, "siblings of the failed subtree must survive")
	assert.Equal(t, "block-a", blocks[0].ID)
	assert.Equal(t, "block-b", blocks[1].ID)
	assert.Equal(t, "block-c", blocks[2].ID)
	assert.NotNil(t, blocks[1].Children)
	assert.Empty(t, blocks[1].Children)
}

func TestSource_FetchBlockTree_TopLevelFailureReturnsPartial(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/blocks/page-1/children", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, blockListJSON(true, "c2", blockJSON("block-a", "paragraph", false)))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	src := newTestSource(t, mux, DataSourceFirst)
	src.client.maxRetries = 0

	blocks, err := src.FetchBlockTree(context.Background(), "page-1")

	require.NoError(t, err, "a truncated page still renders with what arrived")
	require.Len(t, blocks, 1)
	assert.Equal(t, "block-a", blocks[0].ID)
}

func TestSource_FetchBlockTree_PaginatesChildren(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/blocks/page-1/children", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			assert.Empty(t, r.URL.Query().Get("start_cursor"))
			fmt.Fprint(w, blockListJSON(true, "c2", blockJSON("block-a", "paragraph", false)))
			return
		}
		assert.Equal(t, "c2", r.URL.Query().Get("start_cursor"))
		fmt.Fprint(w, blockListJSON(false, "",
			blockJSON("block-b", "paragraph", false),
			blockJSON("block-c", "paragraph", false),
		))
	})

	src := newTestSource(t, mux, DataSourceFirst)

	blocks, err := src.FetchBlockTree(context.Background(), "page-1")

	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "block-a", blocks[0].ID)
	assert.Equal(t, "block-b", blocks[1].ID)
	assert.Equal(t, "block-c", blocks[2].ID)
}

func TestSource_FetchBlockTree_SkipsMalformedBlocks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/blocks/page-1/children", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blockListJSON(false, "",
			`{"object":"block","id":"block-x"}`,
			blockJSON("block-a", "paragraph", false),
		))
	})

	src := newTestSource(t, mux, DataSourceFirst)

	blocks, err := src.FetchBlockTree(context.Background(), "page-1")

	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "block-a", blocks[0].ID)
}

func TestSource_FetchBlockTree_DepthGuard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/blocks/{id}/children", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		n := 0
		if strings.HasPrefix(id, "chain-") {
			n, _ = strconv.Atoi(strings.TrimPrefix(id, "chain-"))
		}
		child := fmt.Sprintf("chain-%d", n+1)
		fmt.Fprint(w, blockListJSON(false, "", blockJSON(child, "toggle", true)))
	})

	src := newTestSource(t, mux, DataSourceFirst)

	blocks, err := src.FetchBlockTree(context.Background(), "chain-0")

	require.NoError(t, err)
	require.Len(t, blocks, 1)

	depth := 0
	node := &blocks[0]
	for {
		depth++
		if len(node.Children) == 0 {
			break
		}
		node = &node.Children[0]
	}

	assert.Equal(t, MaxTreeDepth, depth, "expansion must stop at the depth limit")
	assert.True(t, node.HasChildren, "the cut-off node keeps its has_children flag")
}

func TestSource_FetchBlockTree_ContextCancelled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/blocks/page-1/children", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blockListJSON(false, "", blockJSON("block-a", "paragraph", false)))
	})

	src := newTestSource(t, mux, DataSourceFirst)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocks, err := src.FetchBlockTree(ctx, "page-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, blocks)
}
