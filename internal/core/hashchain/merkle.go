package hashchain

import (
	"errors"
	"fmt"
)

var ErrEmptyTree = errors.New("merkle tree needs at least one leaf")

// Leaves and inner nodes are hashed with distinct prefixes so an inner node can never pass as a leaf.
func hashLeaf(leaf string) string {
	return SumString("\x00" + leaf)
}

func hashNode(left, right string) string {
	return SumString("\x01" + left + right)
}

// MerkleTree commits to an ordered batch of leaves.
type MerkleTree struct {
	levels [][]string
}

// NewMerkleTree builds the tree bottom-up. An odd node at any level is promoted unchanged,
// so a batch and the same batch with its last leaf repeated never share a root.
func NewMerkleTree(leaves []string) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	level := make([]string, len(leaves))
	for i, leaf := range leaves {
		level[i] = hashLeaf(leaf)
	}
	levels := [][]string{level}

	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashNode(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}

	return &MerkleTree{levels: levels}, nil
}

// Root returns the tree's root hash.
func (t *MerkleTree) Root() string {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Size returns the number of leaves.
func (t *MerkleTree) Size() int {
	return len(t.levels[0])
}

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	Hash string `json:"hash"`
	Left bool   `json:"left"` // sibling sits to the left of the running hash
}

// MerkleProof is the sibling path for one leaf of a batch of BatchSize leaves.
type MerkleProof struct {
	LeafIndex int         `json:"leafIndex"`
	BatchSize int         `json:"batchSize"`
	Steps     []ProofStep `json:"steps"`
}

// Proof returns the inclusion proof for the leaf at index.
func (t *MerkleTree) Proof(index int) (*MerkleProof, error) {
	if index < 0 || index >= t.Size() {
		return nil, fmt.Errorf("leaf index %d out of range [0,%d)", index, t.Size())
	}

	proof := &MerkleProof{LeafIndex: index, BatchSize: t.Size()}
	i := index
	for _, level := range t.levels[:len(t.levels)-1] {
		if sibling := i ^ 1; sibling < len(level) {
			proof.Steps = append(proof.Steps, ProofStep{Hash: level[sibling], Left: i%2 == 1})
		}
		i /= 2
	}
	return proof, nil
}

// Verify replays the sibling path from leaf and compares the result with root. The path must
// have exactly the shape that LeafIndex takes through a batch of BatchSize leaves.
func (p MerkleProof) Verify(leaf, root string) bool {
	if p.LeafIndex < 0 || p.LeafIndex >= p.BatchSize {
		return false
	}

	h := hashLeaf(leaf)
	steps := p.Steps
	for i, width := p.LeafIndex, p.BatchSize; width > 1; i, width = i/2, (width+1)/2 {
		if i^1 >= width {
			continue // promoted without a sibling
		}
		if len(steps) == 0 || steps[0].Left != (i%2 == 1) {
			return false
		}
		if steps[0].Left {
			h = hashNode(steps[0].Hash, h)
		} else {
			h = hashNode(h, steps[0].Hash)
		}
		steps = steps[1:]
	}
	return len(steps) == 0 && h == root
}
