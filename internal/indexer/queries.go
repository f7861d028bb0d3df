package indexer

// 查询名，用于日志、指标和错误信息
const (
	QueryListPackets          = "list-packets"
	QueryListPacketsByCreator = "list-packets-by-creator"
	QueryListClaims           = "list-claims-for-packet"
)

const listPacketsQuery = `
query GetRedPackets($first: Int!) {
  redPacketStats_collection(
    first: $first
    orderBy: redPacketId
    orderDirection: desc
  ) {
    id
    redPacketId
    creator
    totalAmount
    totalCount
    claimedCount
    remainingAmount
    claimers
  }
}`

const listPacketsByCreatorQuery = `
query GetRedPacketsByCreator($creator: Bytes!, $first: Int!) {
  redPacketStats_collection(
    where: { creator: $creator }
    first: $first
    orderBy: redPacketId
    orderDirection: desc
  ) {
    id
    redPacketId
    creator
    totalAmount
    totalCount
    claimedCount
    remainingAmount
    claimers
  }
}`

const listClaimsQuery = `
query GetRedPacketClaims($redPacketId: BigInt!, $first: Int = 100) {
  redPacketClaimeds(
    where: { redPacketId: $redPacketId }
    first: $first
    orderBy: blockTimestamp
    orderDirection: desc
  ) {
    id
    redPacketId
    claimer
    amount
    blockNumber
    blockTimestamp
    transactionHash
  }
}`
