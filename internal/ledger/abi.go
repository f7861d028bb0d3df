package ledger

// RedPacketABI 红包合约中客户端用到的方法
const RedPacketABI = `[
  {
    "type": "function",
    "name": "createRedPacket",
    "stateMutability": "payable",
    "inputs": [{"name": "totalCount", "type": "uint256"}],
    "outputs": []
  },
  {
    "type": "function",
    "name": "claimRedPacket",
    "stateMutability": "nonpayable",
    "inputs": [{"name": "redPacketId", "type": "uint256"}],
    "outputs": []
  },
  {
    "type": "function",
    "name": "hasUserClaimed",
    "stateMutability": "view",
    "inputs": [
      {"name": "redPacketId", "type": "uint256"},
      {"name": "user", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  }
]`

const (
	methodCreate     = "createRedPacket"
	methodClaim      = "claimRedPacket"
	methodHasClaimed = "hasUserClaimed"
)
