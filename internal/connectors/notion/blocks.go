package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

// MaxTreeDepth bounds block tree expansion. Deeper nesting is left
// unexpanded with a warning rather than looping on a cyclic response.
const MaxTreeDepth = 64

// blockFrame is one pending node on the expansion stack.
type blockFrame struct {
	node  *domain.Block
	depth int
}

// FetchBlockTree materialises the block tree under the given page or
// block. The walk is iterative over an explicit stack; each node's
// children are fully paginated and attached before the node's subtree is
// expanded further, so sibling order always matches the source.
//
// Failures degrade instead of propagating: a failed child listing leaves
// that node with empty children, and a failure while paging the top
// level returns the blocks gathered so far. Only context cancellation
// returns an error.
func (s *Source) FetchBlockTree(ctx context.Context, rootID string) ([]domain.Block, error) {
	roots, err := s.listChildren(ctx, rootID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Content of page %s truncated: %v", rootID, err)
	}

	stack := make([]blockFrame, 0, len(roots))
	for i := range roots {
		stack = append(stack, blockFrame{node: &roots[i], depth: 1})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !frame.node.HasChildren {
			continue
		}
		if frame.depth >= MaxTreeDepth {
			logger.Warn("Block %s nested beyond depth %d, leaving subtree unexpanded", frame.node.ID, MaxTreeDepth)
			continue
		}

		children, err := s.listChildren(ctx, frame.node.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Failed to fetch children of block %s: %v", frame.node.ID, err)
			frame.node.Children = []domain.Block{}
			continue
		}

		frame.node.Children = children
		for i := range frame.node.Children {
			stack = append(stack, blockFrame{node: &frame.node.Children[i], depth: frame.depth + 1})
		}
	}

	return roots, nil
}

// blockListResponse is one page of GET /v1/blocks/{id}/children.
type blockListResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// listChildren collects the direct children of a block across all
// pagination pages. On error it returns the children gathered so far
// together with the error.
func (s *Source) listChildren(ctx context.Context, blockID string) ([]domain.Block, error) {
	var collected []domain.Block
	cursor := ""

	for {
		path := fmt.Sprintf("/v1/blocks/%s/children?page_size=%d", blockID, QueryPageSize)
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}

		body, err := s.client.get(ctx, path)
		if err != nil {
			return collected, err
		}

		var page blockListResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return collected, fmt.Errorf("decode block list: %w", err)
		}

		for _, raw := range page.Results {
			block, err := parseBlock(raw)
			if err != nil {
				logger.Warn("Skipping malformed block under %s: %v", blockID, err)
				continue
			}
			collected = append(collected, block)
		}

		if !page.HasMore || page.NextCursor == "" {
			return collected, nil
		}
		cursor = page.NextCursor
	}
}

// parseBlock converts one raw block object. The full object is retained
// as the payload; the renderer digs into it by type.
func parseBlock(raw json.RawMessage) (domain.Block, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Block{}, fmt.Errorf("decode block: %w", err)
	}

	id, _ := payload["id"].(string)
	blockType, _ := payload["type"].(string)
	if id == "" || blockType == "" {
		return domain.Block{}, fmt.Errorf("block object missing id or type")
	}

	hasChildren, _ := payload["has_children"].(bool)
	return domain.Block{
		ID:          id,
		Type:        blockType,
		HasChildren: hasChildren,
		Payload:     payload,
	}, nil
}
