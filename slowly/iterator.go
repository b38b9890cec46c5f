package slowly

import "context"

// LetterIterator is a forward-only cursor over a friend's letter
// thread, fetching one page at a time. Use it like a bufio.Scanner:
//
//	it := friend.Letters()
//	for it.Next(ctx) {
//		fmt.Println(it.Letter())
//	}
//	if err := it.Err(); err != nil {
//		return err
//	}
type LetterIterator struct {
	state  *ConnectionState
	userID int64

	page     int
	batch    []*Letter
	nextPage string

	current *Letter
	err     error
}

func newLetterIterator(state *ConnectionState, userID int64) *LetterIterator {
	return &LetterIterator{
		state:  state,
		userID: userID,
		page:   1,
	}
}

// Next advances the cursor, fetching the next page when the buffered
// batch is exhausted and the server reported more. It returns false
// when the thread is exhausted or an error occurred.
func (it *LetterIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	if len(it.batch) == 0 && (it.page == 1 || it.nextPage != "") {
		data, err := it.state.HTTP.FetchUserLetters(ctx, it.userID, it.page)
		if err != nil {
			it.err = err
			return false
		}
		it.page++
		it.nextPage = data.NextPageURL

		for _, raw := range data.Data {
			letter, err := newLetter(it.state, raw)
			if err != nil {
				it.err = err
				return false
			}
			it.batch = append(it.batch, letter)
		}
	}

	if len(it.batch) == 0 {
		return false // exhausted, terminal state
	}

	it.current = it.batch[0]
	it.batch = it.batch[1:]
	return true
}

// Letter returns the letter produced by the last successful Next.
func (it *LetterIterator) Letter() *Letter {
	return it.current
}

// Err returns the first error encountered while iterating.
func (it *LetterIterator) Err() error {
	return it.err
}

// Flatten drains the iterator into a slice.
func (it *LetterIterator) Flatten(ctx context.Context) ([]*Letter, error) {
	var letters []*Letter
	for it.Next(ctx) {
		letters = append(letters, it.Letter())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return letters, nil
}
